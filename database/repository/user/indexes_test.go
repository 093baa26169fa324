package userRepo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestUserIndexesMatchQueriedFields(t *testing.T) {
	var fields []string
	for _, idx := range userIndexes() {
		keys, ok := idx.Keys.(bson.D)
		if !assert.True(t, ok) {
			continue
		}
		for _, k := range keys {
			assert.Equal(t, 1, k.Value, "index on %s should be ascending", k.Key)
			fields = append(fields, k.Key)
		}
	}
	assert.Equal(t, []string{"id", "username", "university"}, fields)
}

package memoryRepo

import (
	chatRepo "studybuddy/database/repository/chat"
	matchRepo "studybuddy/database/repository/match"
	schedulingRepo "studybuddy/database/repository/scheduling"
	userRepo "studybuddy/database/repository/user"
)

var (
	_ userRepo.UserRepository             = (*Users)(nil)
	_ matchRepo.MatchRepository           = (*Matches)(nil)
	_ schedulingRepo.SchedulingRepository = (*Scheduling)(nil)
	_ chatRepo.ChatRepository             = (*Chats)(nil)
)

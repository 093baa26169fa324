package repository

import (
	chatRepo "studybuddy/database/repository/chat"
	matchRepo "studybuddy/database/repository/match"
	schedulingRepo "studybuddy/database/repository/scheduling"
	userRepo "studybuddy/database/repository/user"
)

// Re-export the UserRepository interface and constructor.
type UserRepository = userRepo.UserRepository

var NewMongoUserRepository = userRepo.NewMongoUserRepo

// Re-export the MatchRepository interface and constructor.
type MatchRepository = matchRepo.MatchRepository

var NewMongoMatchRepository = matchRepo.NewMongoMatchRepo

// Re-export the SchedulingRepository interface and constructor.
type SchedulingRepository = schedulingRepo.SchedulingRepository

var NewMongoSchedulingRepository = schedulingRepo.NewMongoSchedulingRepo

type ChatRepository = chatRepo.ChatRepository

var NewMongoChatRepository = chatRepo.NewMongoChatRepo

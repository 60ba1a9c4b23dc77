package dto

import commonDto "hmcc.com/communityplatform/pkg/dto"

type ListPendingUsersFilter struct {
	commonDto.PageQuery
	Role string `form:"role" binding:"omitempty,oneof=MENTOR FELLOW COMMUNITY_ADMIN USER"`
}

type RejectUserRequest struct {
	// Reason is included in the rejection notification when present.
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

type PlatformStats struct {
	TotalUsers     int64            `json:"total_users"`
	PendingUsers   int64            `json:"pending_users"`
	ActiveUsers    int64            `json:"active_users"`
	SuspendedUsers int64            `json:"suspended_users"`
	UsersByRole    map[string]int64 `json:"users_by_role"`
}

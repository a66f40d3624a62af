package service

import (
	"github.com/j-neeley/DawgPound/internal/dto"
	"github.com/j-neeley/DawgPound/internal/model"
)

// ── model → dto 转换 ──

func toUserResponse(u *model.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:                  u.ID,
		Username:            u.Username,
		Email:               u.Email,
		FirstName:           u.FirstName,
		LastName:            u.LastName,
		IsVerified:          u.IsVerified(),
		IsStaff:             u.IsStaff,
		IsSuperuser:         u.IsSuperuser,
		Majors:              nonNil(u.Majors),
		InterestsHobbies:    nonNil(u.InterestsHobbies),
		YearOfStudy:         u.YearOfStudy,
		GraduationYear:      u.GraduationYear,
		Privacy:             map[string]interface{}(u.Privacy),
		OnboardingCompleted: u.OnboardingCompleted(),
		CreatedAt:           u.CreatedAt,
	}
}

// toUserSummary 对外展示；profile_visible=false 时隐藏资料字段
func toUserSummary(u *model.User) *dto.UserSummary {
	if u == nil {
		return nil
	}
	s := &dto.UserSummary{
		ID:          u.ID,
		Username:    u.Username,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		DisplayName: u.DisplayName(),
	}
	if profileVisible(u) {
		s.Majors = u.Majors
		s.InterestsHobbies = u.InterestsHobbies
		s.YearOfStudy = u.YearOfStudy
	}
	return s
}

func profileVisible(u *model.User) bool {
	v, ok := u.Privacy["profile_visible"].(bool)
	return !ok || v
}

func nonNil(a model.StringArray) []string {
	if a == nil {
		return []string{}
	}
	return a
}

func toGroupResponse(g *model.Group, memberCount int64, isMember bool) *dto.GroupResponse {
	return &dto.GroupResponse{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		Category:    g.Category,
		Tags:        nonNil(g.Tags),
		Creator:     toUserSummary(g.Creator),
		MemberCount: memberCount,
		IsMember:    isMember,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}

func toThreadResponse(t *model.Thread, replyCount int64) *dto.ThreadResponse {
	return &dto.ThreadResponse{
		ID:          t.ID,
		GroupID:     t.GroupID,
		Author:      toUserSummary(t.Author),
		Title:       t.Title,
		Content:     t.Content,
		ContentType: t.ContentType,
		Attachments: attachments(t.Attachments),
		Pinned:      t.Pinned,
		Locked:      t.Locked,
		ReplyCount:  replyCount,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func toReplyResponse(r *model.Reply) *dto.ReplyResponse {
	return &dto.ReplyResponse{
		ID:          r.ID,
		ThreadID:    r.ThreadID,
		Author:      toUserSummary(r.Author),
		Content:     r.Content,
		ContentType: r.ContentType,
		Attachments: attachments(r.Attachments),
		CreatedAt:   r.CreatedAt,
	}
}

func attachments(l model.JSONList) []interface{} {
	if l == nil {
		return []interface{}{}
	}
	return l
}

func toChatResponse(c *model.PrivateChat, viewerID string) *dto.ChatResponse {
	resp := &dto.ChatResponse{
		ID:           c.ID,
		Name:         c.Name,
		Avatar:       c.Avatar,
		CreatedBy:    c.CreatedBy,
		Participants: make([]dto.ParticipantResponse, 0, len(c.Participants)),
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
	for i := range c.Participants {
		p := &c.Participants[i]
		if p.UserID == viewerID {
			resp.IsMuted = p.Muted
		}
		resp.Participants = append(resp.Participants, dto.ParticipantResponse{
			User:     toUserSummary(p.User),
			Muted:    p.Muted,
			JoinedAt: p.JoinedAt,
		})
	}
	return resp
}

func toMessageResponse(m *model.Message) *dto.ChatMessageResponse {
	return &dto.ChatMessageResponse{
		ID:        m.ID,
		ChatID:    m.ChatID,
		Author:    toUserSummary(m.Author),
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}

func toLogResponse(l *model.ModerationLog) *dto.ModerationLogResponse {
	return &dto.ModerationLogResponse{
		ID:           l.ID,
		ModeratorID:  l.ModeratorID,
		Action:       string(l.Action),
		GroupID:      l.GroupID,
		ThreadID:     l.ThreadID,
		ReplyID:      l.ReplyID,
		TargetUserID: l.TargetUserID,
		Reason:       l.Reason,
		Metadata:     map[string]interface{}(l.Metadata),
		CreatedAt:    l.CreatedAt,
	}
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

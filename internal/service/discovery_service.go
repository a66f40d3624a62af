package service

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/j-neeley/DawgPound/internal/dto"
	"github.com/j-neeley/DawgPound/internal/model"
	"github.com/j-neeley/DawgPound/internal/repository"
)

// 推荐权重
const (
	weightSharedMajor    = 10
	weightSharedInterest = 5
	weightSameYear       = 8
	weightSharedGroup    = 12

	weightGroupMajorTag    = 10
	weightGroupInterestTag = 8
	weightGroupClassYear   = 15
	weightFriendInGroup    = 7

	recommendationLimit = 20
	feedLimit           = 10
)

// DiscoveryService 用户与群组推荐接口
type DiscoveryService interface {
	Recommendations(ctx context.Context, caller Caller) ([]dto.UserRecommendation, error)
	Feed(ctx context.Context, caller Caller) (*dto.FeedResponse, error)
}

type discoveryService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewDiscoveryService 创建 DiscoveryService 实例
func NewDiscoveryService(repo *repository.Repository, logger *zap.Logger) DiscoveryService {
	return &discoveryService{repo: repo, logger: logger}
}

// Recommendations 按相似度排序的用户推荐
func (s *discoveryService) Recommendations(ctx context.Context, caller Caller) ([]dto.UserRecommendation, error) {
	me, ok, err := s.onboardedCaller(ctx, caller)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []dto.UserRecommendation{}, nil
	}
	friendIDs, err := s.repo.Friend.ListFriendIDs(ctx, me.ID)
	if err != nil {
		return nil, logErr(s.logger, err, "查询好友失败", zap.String("user_id", me.ID))
	}
	return s.recommendUsers(ctx, me, toSet(friendIDs), recommendationLimit)
}

// Feed 发现页：用户与未加入群组各取前 10
func (s *discoveryService) Feed(ctx context.Context, caller Caller) (*dto.FeedResponse, error) {
	feed := &dto.FeedResponse{Users: []dto.UserRecommendation{}, Groups: []dto.GroupRecommendation{}}
	me, ok, err := s.onboardedCaller(ctx, caller)
	if err != nil {
		return nil, err
	}
	if !ok {
		return feed, nil
	}

	friendIDs, err := s.repo.Friend.ListFriendIDs(ctx, me.ID)
	if err != nil {
		return nil, logErr(s.logger, err, "查询好友失败", zap.String("user_id", me.ID))
	}
	friends := toSet(friendIDs)

	if feed.Users, err = s.recommendUsers(ctx, me, friends, feedLimit); err != nil {
		return nil, err
	}
	if feed.Groups, err = s.recommendGroups(ctx, me, friendIDs); err != nil {
		return nil, err
	}
	return feed, nil
}

// ── 推荐计算 ──

func (s *discoveryService) onboardedCaller(ctx context.Context, caller Caller) (*model.User, bool, error) {
	me, err := s.repo.User.GetByID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrUserNotFound
		}
		return nil, false, logErr(s.logger, err, "查询用户失败", zap.String("user_id", caller.UserID))
	}
	return me, me.OnboardingCompleted(), nil
}

func (s *discoveryService) recommendUsers(ctx context.Context, me *model.User, friends map[string]bool, limit int) ([]dto.UserRecommendation, error) {
	exclude, err := s.repo.Block.ListRelatedIDs(ctx, me.ID)
	if err != nil {
		return nil, logErr(s.logger, err, "查询拉黑关系失败", zap.String("user_id", me.ID))
	}
	exclude = append(exclude, me.ID)

	candidates, err := s.repo.User.ListOnboarded(ctx, exclude)
	if err != nil {
		return nil, logErr(s.logger, err, "查询候选用户失败")
	}
	if len(candidates) == 0 {
		return []dto.UserRecommendation{}, nil
	}

	ids := make([]string, 0, len(candidates)+1)
	ids = append(ids, me.ID)
	for i := range candidates {
		ids = append(ids, candidates[i].ID)
	}
	memberships, err := s.repo.Group.ListMembershipsByUsers(ctx, ids)
	if err != nil {
		return nil, logErr(s.logger, err, "查询群组成员失败")
	}
	groupsByUser := make(map[string]map[string]bool)
	for _, m := range memberships {
		if groupsByUser[m.UserID] == nil {
			groupsByUser[m.UserID] = make(map[string]bool)
		}
		groupsByUser[m.UserID][m.GroupID] = true
	}

	result := make([]dto.UserRecommendation, 0)
	for i := range candidates {
		u := &candidates[i]
		rec := scoreUser(me, u, groupsByUser[me.ID], groupsByUser[u.ID])
		if rec.Score <= 0 {
			continue
		}
		rec.User = toUserSummary(u)
		rec.IsFriend = friends[u.ID]
		result = append(result, rec)
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Score > result[j].Score })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *discoveryService) recommendGroups(ctx context.Context, me *model.User, friendIDs []string) ([]dto.GroupRecommendation, error) {
	groups, err := s.repo.Group.ListNotJoined(ctx, me.ID)
	if err != nil {
		return nil, logErr(s.logger, err, "查询未加入群组失败", zap.String("user_id", me.ID))
	}
	if len(groups) == 0 {
		return []dto.GroupRecommendation{}, nil
	}

	friendsPerGroup := make(map[string]int)
	if len(friendIDs) > 0 {
		memberships, err := s.repo.Group.ListMembershipsByUsers(ctx, friendIDs)
		if err != nil {
			return nil, logErr(s.logger, err, "查询好友群组失败")
		}
		for _, m := range memberships {
			friendsPerGroup[m.GroupID]++
		}
	}

	type scored struct {
		group   *model.Group
		score   int
		friends int
	}
	ranked := make([]scored, 0)
	for i := range groups {
		g := &groups[i]
		score := scoreGroup(me, g, friendsPerGroup[g.ID])
		if score > 0 {
			ranked = append(ranked, scored{group: g, score: score, friends: friendsPerGroup[g.ID]})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if len(ranked) > feedLimit {
		ranked = ranked[:feedLimit]
	}

	ids := make([]string, len(ranked))
	for i := range ranked {
		ids[i] = ranked[i].group.ID
	}
	counts, err := s.repo.Group.CountMembers(ctx, ids)
	if err != nil {
		return nil, logErr(s.logger, err, "统计群组成员失败")
	}

	result := make([]dto.GroupRecommendation, 0, len(ranked))
	for _, r := range ranked {
		result = append(result, dto.GroupRecommendation{
			Group:          toGroupResponse(r.group, counts[r.group.ID], false),
			Score:          r.score,
			FriendsInGroup: r.friends,
		})
	}
	return result, nil
}

// scoreUser 计算候选用户与当前用户的相似度
func scoreUser(me, other *model.User, myGroups, otherGroups map[string]bool) dto.UserRecommendation {
	rec := dto.UserRecommendation{
		SharedMajors:    intersect(me.Majors, other.Majors),
		SharedInterests: intersect(me.InterestsHobbies, other.InterestsHobbies),
	}
	for g := range otherGroups {
		if myGroups[g] {
			rec.SharedGroups++
		}
	}

	rec.Score = len(rec.SharedMajors)*weightSharedMajor +
		len(rec.SharedInterests)*weightSharedInterest +
		rec.SharedGroups*weightSharedGroup
	if me.YearOfStudy != "" && me.YearOfStudy == other.YearOfStudy {
		rec.Score += weightSameYear
	}
	return rec
}

// scoreGroup 按分类标签与好友数计算群组得分
func scoreGroup(me *model.User, g *model.Group, friendsInGroup int) int {
	score := friendsInGroup * weightFriendInGroup
	switch g.Category {
	case model.CategoryMajor:
		score += len(intersect(g.Tags, me.Majors)) * weightGroupMajorTag
	case model.CategoryInterestsActivities:
		score += len(intersect(g.Tags, me.InterestsHobbies)) * weightGroupInterestTag
	case model.CategoryClassYear:
		if me.YearOfStudy != "" && g.Tags.Contains(me.YearOfStudy) {
			score += weightGroupClassYear
		}
	}
	return score
}

// intersect 保持 a 的顺序
func intersect(a, b model.StringArray) []string {
	out := make([]string, 0)
	for _, v := range a {
		if b.Contains(v) {
			out = append(out, v)
		}
	}
	return out
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/j-neeley/DawgPound/config"
	"github.com/j-neeley/DawgPound/internal/dto"
	"github.com/j-neeley/DawgPound/internal/model"
	"github.com/j-neeley/DawgPound/internal/repository"
	pkgerrors "github.com/j-neeley/DawgPound/pkg/errors"
	"github.com/j-neeley/DawgPound/pkg/events"
	"github.com/j-neeley/DawgPound/pkg/jwt"
)

var (
	ErrInvalidCredentials       = errors.New("Invalid username or password")
	ErrUserNotFound             = errors.New("User not found")
	ErrUsernameTaken            = errors.New("A user with that username already exists")
	ErrEmailTaken               = errors.New("A user with that email already exists")
	ErrInvalidVerificationToken = errors.New("Invalid token")
	ErrAlreadyVerified          = errors.New("Email already verified")
	ErrEmailNotVerified         = errors.New("Email not verified")
	ErrMajorRequired            = errors.New("At least one major is required")
	ErrInterestsRequired        = errors.New("At least three interests/hobbies are required")
)

// AccountService 账号、会话与引导资料业务接口
type AccountService interface {
	Signup(ctx context.Context, req *dto.SignupRequest) (*dto.SessionResult, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.SessionResult, error)
	Logout(ctx context.Context, jti string, expiresAt time.Time) error
	Me(ctx context.Context, userID string) (*dto.UserResponse, error)
	IsVerified(ctx context.Context, userID string) (bool, error)
	Privileges(ctx context.Context, userID string) (isStaff, isSuperuser bool, err error)
	VerifyEmail(ctx context.Context, token string) (*dto.UserResponse, error)
	ResendVerification(ctx context.Context, userID string) error
	GetOnboarding(ctx context.Context, userID string) (*dto.UserResponse, error)
	CompleteOnboarding(ctx context.Context, userID string, req *dto.OnboardingRequest) (*dto.UserResponse, error)
	UpdateOnboarding(ctx context.Context, userID string, req *dto.OnboardingRequest) (*dto.UserResponse, error)
	Taxonomy() *dto.TaxonomyResponse
}

type accountService struct {
	cfg      *config.Config
	repo     *repository.Repository
	jwtMgr   *jwt.Manager
	mailer   Mailer
	sessions SessionStore
	events   *emitter
	now      func() time.Time
	logger   *zap.Logger
}

// NewAccountService 创建 AccountService 实例
func NewAccountService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	deps Dependencies,
	logger *zap.Logger,
) AccountService {
	deps = deps.withDefaults()
	return &accountService{
		cfg:      cfg,
		repo:     repo,
		jwtMgr:   jwtMgr,
		mailer:   deps.Mailer,
		sessions: deps.Sessions,
		events:   newEmitter(deps.Publisher, logger),
		now:      deps.Now,
		logger:   logger,
	}
}

// ────────── Signup / Login / Logout ──────────

func (s *accountService) Signup(ctx context.Context, req *dto.SignupRequest) (*dto.SessionResult, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := s.repo.User.GetByUsername(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询用户名失败", zap.Error(err))
		return nil, err
	}
	if _, err := s.repo.User.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询邮箱失败", zap.Error(err))
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	token := newVerificationToken()
	user := &model.User{
		Username:          username,
		Email:             email,
		PasswordHash:      string(hash),
		FirstName:         strings.TrimSpace(req.FirstName),
		LastName:          strings.TrimSpace(req.LastName),
		VerificationToken: &token,
		Majors:            model.StringArray{},
		InterestsHobbies:  model.StringArray{},
		Privacy:           model.JSONMap{"profile_visible": true},
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		switch {
		case pkgerrors.IsUniqueViolation(err, "uq_users_username"):
			return nil, ErrUsernameTaken
		case pkgerrors.IsUniqueViolation(err, "uq_users_email"):
			return nil, ErrEmailTaken
		}
		s.logger.Error("创建用户失败", zap.String("username", username), zap.Error(err))
		return nil, err
	}

	if err := s.mailer.SendVerification(ctx, user.Email, user.Username, token); err != nil {
		s.logger.Warn("发送验证邮件失败", zap.String("user_id", user.ID), zap.Error(err))
	}
	s.events.emit(ctx, events.UserSignedUp, user.ID, user.ID, map[string]string{"username": user.Username})

	return s.issueSession(user)
}

func (s *accountService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.SessionResult, error) {
	user, err := s.repo.User.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	user.LastLoginAt = &now
	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Warn("更新最后登录时间失败", zap.String("user_id", user.ID), zap.Error(err))
	}

	return s.issueSession(user)
}

func (s *accountService) issueSession(user *model.User) (*dto.SessionResult, error) {
	token, expiresAt, err := s.jwtMgr.GenerateSessionToken(jwt.Subject{
		UserID:      user.ID,
		Username:    user.Username,
		IsStaff:     user.IsStaff,
		IsSuperuser: user.IsSuperuser,
	})
	if err != nil {
		s.logger.Error("签发会话失败", zap.String("user_id", user.ID), zap.Error(err))
		return nil, err
	}
	return &dto.SessionResult{User: toUserResponse(user), Token: token, ExpiresAt: expiresAt}, nil
}

// Logout 将会话 jti 加入黑名单直至过期；未配置 Redis 时只清除 Cookie
func (s *accountService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if s.sessions == nil || jti == "" {
		return nil
	}
	if err := s.sessions.RevokeSession(ctx, jti, expiresAt); err != nil {
		s.logger.Warn("吊销会话失败", zap.String("jti", jti), zap.Error(err))
	}
	return nil
}

// ────────── Me / Verification ──────────

func (s *accountService) Me(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

func (s *accountService) IsVerified(ctx context.Context, userID string) (bool, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.IsVerified(), nil
}

func (s *accountService) Privileges(ctx context.Context, userID string) (bool, bool, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return false, false, err
	}
	return user.IsStaff, user.IsSuperuser, nil
}

func (s *accountService) VerifyEmail(ctx context.Context, token string) (*dto.UserResponse, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidVerificationToken
	}
	user, err := s.repo.User.GetByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidVerificationToken
		}
		s.logger.Error("查询验证令牌失败", zap.Error(err))
		return nil, err
	}

	now := s.now()
	user.VerifiedAt = &now
	user.VerificationToken = nil
	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("更新验证状态失败", zap.String("user_id", user.ID), zap.Error(err))
		return nil, err
	}

	s.events.emit(ctx, events.UserVerified, user.ID, user.ID, nil)
	return toUserResponse(user), nil
}

func (s *accountService) ResendVerification(ctx context.Context, userID string) error {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsVerified() {
		return ErrAlreadyVerified
	}

	token := newVerificationToken()
	user.VerificationToken = &token
	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("刷新验证令牌失败", zap.String("user_id", userID), zap.Error(err))
		return err
	}
	if err := s.mailer.SendVerification(ctx, user.Email, user.Username, token); err != nil {
		s.logger.Error("发送验证邮件失败", zap.String("user_id", userID), zap.Error(err))
		return err
	}
	return nil
}

// ────────── Onboarding ──────────

func (s *accountService) GetOnboarding(ctx context.Context, userID string) (*dto.UserResponse, error) {
	return s.Me(ctx, userID)
}

// CompleteOnboarding 整体提交引导资料
func (s *accountService) CompleteOnboarding(ctx context.Context, userID string, req *dto.OnboardingRequest) (*dto.UserResponse, error) {
	majors := cleanList(req.Majors)
	interests := cleanList(req.InterestsHobbies)
	if len(majors) < model.MinMajors {
		return nil, ErrMajorRequired
	}
	if len(interests) < model.MinInterests {
		return nil, ErrInterestsRequired
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Majors = majors
	user.InterestsHobbies = interests
	applyOptionalProfile(user, req)
	return s.saveProfile(ctx, user)
}

// UpdateOnboarding 部分更新；仅校验请求中出现的字段
func (s *accountService) UpdateOnboarding(ctx context.Context, userID string, req *dto.OnboardingRequest) (*dto.UserResponse, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if req.Majors != nil {
		majors := cleanList(req.Majors)
		if len(majors) < model.MinMajors {
			return nil, ErrMajorRequired
		}
		user.Majors = majors
	}
	if req.InterestsHobbies != nil {
		interests := cleanList(req.InterestsHobbies)
		if len(interests) < model.MinInterests {
			return nil, ErrInterestsRequired
		}
		user.InterestsHobbies = interests
	}
	applyOptionalProfile(user, req)
	return s.saveProfile(ctx, user)
}

func applyOptionalProfile(user *model.User, req *dto.OnboardingRequest) {
	if req.YearOfStudy != nil {
		user.YearOfStudy = strings.TrimSpace(*req.YearOfStudy)
	}
	if req.GraduationYear != nil {
		user.GraduationYear = req.GraduationYear
	}
	if req.Privacy != nil {
		if user.Privacy == nil {
			user.Privacy = model.JSONMap{}
		}
		for k, v := range req.Privacy {
			user.Privacy[k] = v
		}
	}
}

func (s *accountService) saveProfile(ctx context.Context, user *model.User) (*dto.UserResponse, error) {
	if err := s.repo.User.Update(ctx, user); err != nil {
		s.logger.Error("保存引导资料失败", zap.String("user_id", user.ID), zap.Error(err))
		return nil, err
	}
	return toUserResponse(user), nil
}

func (s *accountService) Taxonomy() *dto.TaxonomyResponse {
	return &dto.TaxonomyResponse{Majors: Majors(), Interests: Interests()}
}

// ── 内部辅助方法 ──

func (s *accountService) getUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	return user, nil
}

func newVerificationToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// cleanList 去除首尾空白、空值与重复项，保持原顺序
func cleanList(in []string) model.StringArray {
	out := make(model.StringArray, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

package usersvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/corray333/backend-labs/fooddelivery/internal/dal/dalerrors"
	"github.com/corray333/backend-labs/fooddelivery/internal/dal/uow"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/errs"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/message"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/resetotp"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/tempuser"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/user"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

const defaultSessionTTL = 24 * time.Hour

type mailer interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// sessionStore keeps the current session token of each user.
type sessionStore interface {
	Save(ctx context.Context, userID int64, token string, ttl time.Duration) error
	// Get returns dalerrors.ErrNotFound when the user has no live session.
	Get(ctx context.Context, userID int64) (string, error)
}

// UserService handles registration, authentication and profile management.
type UserService struct {
	newUOW      uow.Factory
	mailer      mailer
	sessions    sessionStore
	tokens      tokenIssuer
	validate    *validator.Validate
	bcryptCost  int
	dummyHash   []byte
	now         func() time.Time
	generateOTP func() (string, error)
}

// option is a function that configures the UserService.
type option func(*UserService)

// MustNewUserService creates a new UserService.
func MustNewUserService(opts ...option) *UserService {
	s := &UserService{
		validate:    newValidator(),
		bcryptCost:  bcrypt.DefaultCost,
		tokens:      tokenIssuer{ttl: defaultSessionTTL},
		now:         time.Now,
		generateOTP: generateOTP,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.newUOW == nil {
		panic("usersvc: no storage configured")
	}
	if s.mailer == nil {
		panic("usersvc: no mailer configured")
	}
	if len(s.tokens.secret) == 0 {
		panic("usersvc: empty token secret")
	}

	dummyHash, err := bcrypt.GenerateFromPassword([]byte("not-a-password"), s.bcryptCost)
	if err != nil {
		panic("usersvc: failed to hash dummy password: " + err.Error())
	}
	s.dummyHash = dummyHash

	return s
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithUnitOfWorkFactory(factory uow.Factory) option {
	return func(s *UserService) {
		s.newUOW = factory
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithMailer(m mailer) option {
	return func(s *UserService) {
		s.mailer = m
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithSessionStore(store sessionStore) option {
	return func(s *UserService) {
		s.sessions = store
	}
}

// WithTokenSecret sets the HS256 signing key and session lifetime.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithTokenSecret(secret []byte, ttl time.Duration) option {
	return func(s *UserService) {
		s.tokens.secret = secret
		if ttl > 0 {
			s.tokens.ttl = ttl
		}
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithBcryptCost(cost int) option {
	return func(s *UserService) {
		s.bcryptCost = cost
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithClock(now func() time.Time) option {
	return func(s *UserService) {
		s.now = now
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithOTPGenerator(gen func() (string, error)) option {
	return func(s *UserService) {
		s.generateOTP = gen
	}
}

// RegisterTemporaryUser stages a registration and emails its OTP.
func (s *UserService) RegisterTemporaryUser(ctx context.Context, c user.Candidate, picture []byte) (string, error) {
	if err := s.validateCandidate(c); err != nil {
		return "", err
	}
	if err := validatePicture(picture); err != nil {
		return "", err
	}

	work := s.newUOW()
	if err := s.ensureAvailable(ctx, work, c, 0); err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(c.Password), s.bcryptCost)
	if err != nil {
		return "", errs.Wrap(errs.Unexpected, err, "failed to hash password")
	}

	otp, err := s.generateOTP()
	if err != nil {
		return "", errs.Wrap(errs.Unexpected, err, "failed to generate OTP")
	}

	now := s.now()
	_, err = work.TempUserRepository().Upsert(ctx, tempuser.TemporaryUser{
		Name:           c.Name,
		Username:       c.Username,
		Email:          c.Email,
		Gender:         c.Gender,
		MobileNo:       c.MobileNo,
		Address:        c.Address,
		PasswordHash:   hash,
		ProfilePicture: picture,
		OTP:            otp,
		OTPExpiry:      now.Add(OTPLifetime),
		CreatedAt:      now,
	})
	if err != nil {
		return "", errs.Wrap(errs.Unexpected, err, "failed to store registration")
	}

	body := fmt.Sprintf("Hello %s,\n\nYour registration OTP is %s. It is valid for %d minutes.", c.Name, otp, int(OTPLifetime.Minutes()))
	if err := s.mailer.SendEmail(ctx, c.Email, "Verify your email", body); err != nil {
		return "", errs.Wrap(errs.Unexpected, err, "failed to send OTP email")
	}

	return "OTP sent to " + c.Email + ". Verify it to complete registration.", nil
}

// ensureAvailable rejects an email, username or mobile number owned by another user.
func (s *UserService) ensureAvailable(ctx context.Context, work uow.UnitOfWork, c user.Candidate, selfID int64) error {
	repo := work.UserRepository()
	checks := []struct {
		value   string
		lookup  func(context.Context, string) (user.User, error)
		message string
	}{
		{c.Email, repo.GetByEmail, "Email is already registered."},
		{c.Username, repo.GetByUsername, "Username is already taken."},
		{c.MobileNo, repo.GetByMobile, "Mobile number is already registered."},
	}

	for _, check := range checks {
		if check.value == "" {
			continue
		}
		existing, err := check.lookup(ctx, check.value)
		if errors.Is(err, dalerrors.ErrNotFound) {
			continue
		}
		if err != nil {
			return errs.Wrap(errs.Unexpected, err, "failed to check user uniqueness")
		}
		if existing.ID != selfID {
			return errs.E(errs.InvalidArgument, check.message)
		}
	}

	return nil
}

// VerifyOtpToRegister promotes the pending registration of email to a verified user.
// A registration is dropped after MaxOTPAttempts wrong codes.
func (s *UserService) VerifyOtpToRegister(ctx context.Context, email, otp string) (string, error) {
	work := s.newUOW()
	pendingRepo := work.TempUserRepository()

	pending, err := pendingRepo.GetByEmail(ctx, email)
	if errors.Is(err, dalerrors.ErrNotFound) {
		return "", errs.E(errs.InvalidArgument, "Invalid OTP")
	}
	if err != nil {
		return "", errs.Wrap(errs.Unexpected, err, "failed to look up OTP")
	}

	err = otpCheck{
		want:     pending.OTP,
		attempts: pending.Attempts,
		count:    func(ctx context.Context) (int, error) { return pendingRepo.IncrementAttempts(ctx, pending.ID) },
		discard:  func(ctx context.Context) error { return pendingRepo.Delete(ctx, pending.ID) },
	}.verify(ctx, otp)
	if err != nil {
		return "", err
	}

	now := s.now()
	if pending.Expired(now) {
		return "", errs.E(errs.InvalidArgument, "OTP has expired")
	}

	if err := work.Begin(ctx); err != nil {
		return "", errs.Wrap(errs.Unexpected, err, "failed to register user")
	}
	defer func() {
		if err := work.Rollback(ctx); err != nil {
			slog.Error("Failed to rollback registration", "error", err)
		}
	}()

	_, err = work.UserRepository().Insert(ctx, user.User{
		Name:           pending.Name,
		Username:       pending.Username,
		Email:          pending.Email,
		Gender:         pending.Gender,
		MobileNo:       pending.MobileNo,
		Address:        pending.Address,
		PasswordHash:   pending.PasswordHash,
		ProfilePicture: pending.ProfilePicture,
		Verified:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if errors.Is(err, dalerrors.ErrConflict) {
		return "", errs.E(errs.InvalidArgument, "Email, username or mobile number is already registered.")
	}
	if err != nil {
		return "", errs.Wrap(errs.Unexpected, err, "failed to register user")
	}

	if err := work.TempUserRepository().Delete(ctx, pending.ID); err != nil {
		return "", errs.Wrap(errs.Unexpected, err, "failed to register user")
	}

	if err := work.Commit(ctx); err != nil {
		return "", errs.Wrap(errs.Unexpected, err, "failed to register user")
	}

	return "User registered successfully", nil
}

// Login checks the credentials and opens a session. The token is returned alongside the user.
func (s *UserService) Login(ctx context.Context, username, password string) (user.User, string, error) {
	invalid := errs.E(errs.NotFound, "Invalid username or password")

	u, err := s.newUOW().UserRepository().GetByUsername(ctx, username)
	if errors.Is(err, dalerrors.ErrNotFound) {
		// Unknown usernames pay for a hash comparison too, so they answer no faster.
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))

		return user.User{}, "", invalid
	}
	if err != nil {
		return user.User{}, "", errs.Wrap(errs.Unexpected, err, "failed to log in")
	}

	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return user.User{}, "", invalid
	}

	now := s.now()
	token, err := s.tokens.issue(u.ID, now)
	if err != nil {
		return user.User{}, "", errs.Wrap(errs.Unexpected, err, "failed to log in")
	}

	if s.sessions != nil {
		if err := s.sessions.Save(ctx, u.ID, token, s.tokens.ttl); err != nil {
			return user.User{}, "", errs.Wrap(errs.Unexpected, err, "failed to store session")
		}
	}

	return u, token, nil
}

// ValidateSession returns the user id of a live session token.
func (s *UserService) ValidateSession(ctx context.Context, token string) (int64, error) {
	userID, err := s.tokens.parse(token, s.now())
	if err != nil {
		return 0, errs.Wrap(errs.Unauthorized, err, "Invalid or expired session")
	}

	if s.sessions == nil {
		return userID, nil
	}

	stored, err := s.sessions.Get(ctx, userID)
	if errors.Is(err, dalerrors.ErrNotFound) {
		return 0, errs.E(errs.Unauthorized, "Session not found")
	}
	if err != nil {
		return 0, errs.Wrap(errs.Unexpected, err, "failed to read session")
	}
	if stored != token {
		return 0, errs.E(errs.Unauthorized, "Session has been replaced")
	}

	return userID, nil
}

func (s *UserService) getUser(ctx context.Context, work uow.UnitOfWork, userID int64) (user.User, error) {
	u, err := work.UserRepository().GetByID(ctx, userID)
	if errors.Is(err, dalerrors.ErrNotFound) {
		return user.User{}, errs.E(errs.NotFound, fmt.Sprintf("user %d not found", userID))
	}
	if err != nil {
		return user.User{}, errs.Wrap(errs.Unexpected, err, "failed to get user")
	}

	return u, nil
}

func (s *UserService) getUserByEmail(ctx context.Context, work uow.UnitOfWork, email string) (user.User, error) {
	u, err := work.UserRepository().GetByEmail(ctx, email)
	if errors.Is(err, dalerrors.ErrNotFound) {
		return user.User{}, errs.E(errs.NotFound, "No user registered with email "+email)
	}
	if err != nil {
		return user.User{}, errs.Wrap(errs.Unexpected, err, "failed to get user")
	}

	return u, nil
}

func (s *UserService) GetUserByID(ctx context.Context, userID int64) (user.User, error) {
	return s.getUser(ctx, s.newUOW(), userID)
}

func (s *UserService) GetAllUsers(ctx context.Context) ([]user.User, error) {
	users, err := s.newUOW().UserRepository().List(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.Unexpected, err, "failed to list users")
	}

	return users, nil
}

// UpdateUser applies the non-empty fields of c and, if given, a new profile picture.
func (s *UserService) UpdateUser(ctx context.Context, userID int64, c user.Candidate, picture []byte) (user.User, error) {
	if err := s.validateUpdate(c); err != nil {
		return user.User{}, err
	}
	if err := validatePicture(picture); err != nil {
		return user.User{}, err
	}

	work := s.newUOW()
	u, err := s.getUser(ctx, work, userID)
	if err != nil {
		return user.User{}, err
	}
	if err := s.ensureAvailable(ctx, work, c, userID); err != nil {
		return user.User{}, err
	}

	setIfPresent(&u.Name, c.Name)
	setIfPresent(&u.Username, c.Username)
	setIfPresent(&u.Email, c.Email)
	setIfPresent(&u.Gender, c.Gender)
	setIfPresent(&u.MobileNo, c.MobileNo)
	setIfPresent(&u.Address, c.Address)

	if c.Password != "" {
		u.PasswordHash, err = bcrypt.GenerateFromPassword([]byte(c.Password), s.bcryptCost)
		if err != nil {
			return user.User{}, errs.Wrap(errs.Unexpected, err, "failed to hash password")
		}
	}
	if len(picture) > 0 {
		u.ProfilePicture = picture
	}
	u.UpdatedAt = s.now()

	return s.saveUser(ctx, work, u)
}

func setIfPresent(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

func (s *UserService) saveUser(ctx context.Context, work uow.UnitOfWork, u user.User) (user.User, error) {
	updated, err := work.UserRepository().Update(ctx, u)
	switch {
	case errors.Is(err, dalerrors.ErrNotFound):
		return user.User{}, errs.E(errs.NotFound, fmt.Sprintf("user %d not found", u.ID))
	case errors.Is(err, dalerrors.ErrConflict):
		return user.User{}, errs.E(errs.InvalidArgument, "Email, username or mobile number is already registered.")
	case err != nil:
		return user.User{}, errs.Wrap(errs.Unexpected, err, "failed to update user")
	}

	return updated, nil
}

func (s *UserService) DeleteProfilePicture(ctx context.Context, userID int64) (user.User, error) {
	work := s.newUOW()
	u, err := s.getUser(ctx, work, userID)
	if err != nil {
		return user.User{}, err
	}

	u.ProfilePicture = nil
	u.UpdatedAt = s.now()

	return s.saveUser(ctx, work, u)
}

// DeleteUser removes a user with everything the user owns.
func (s *UserService) DeleteUser(ctx context.Context, userID int64) error {
	err := s.newUOW().UserRepository().Delete(ctx, userID)
	if errors.Is(err, dalerrors.ErrNotFound) {
		return errs.E(errs.NotFound, fmt.Sprintf("user %d not found", userID))
	}
	if err != nil {
		return errs.Wrap(errs.Unexpected, err, "failed to delete user")
	}

	return nil
}

// GetMessagesByUserID returns the notifications sent to a user, newest first.
func (s *UserService) GetMessagesByUserID(ctx context.Context, userID int64) ([]message.Message, error) {
	work := s.newUOW()
	if _, err := s.getUser(ctx, work, userID); err != nil {
		return nil, err
	}

	msgs, err := work.MessageRepository().ListByUserID(ctx, userID)
	if err != nil {
		return nil, errs.Wrap(errs.Unexpected, err, "failed to list messages")
	}

	return msgs, nil
}

// RequestPasswordReset replaces the user's reset code with a new one and emails it.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	work := s.newUOW()
	u, err := s.getUserByEmail(ctx, work, email)
	if err != nil {
		return "", err
	}

	otp, err := s.generateOTP()
	if err != nil {
		return "", errs.Wrap(errs.Unexpected, err, "failed to generate OTP")
	}

	_, err = work.ResetOTPRepository().Upsert(ctx, resetotp.ForgotPasswordOtp{
		UserID:    u.ID,
		OTP:       otp,
		CreatedAt: s.now(),
	})
	if err != nil {
		return "", errs.Wrap(errs.Unexpected, err, "failed to store reset OTP")
	}

	body := fmt.Sprintf("Hello %s,\n\nYour password reset OTP is %s. It is valid for %d minutes.", u.Name, otp, int(resetotp.Lifetime.Minutes()))
	if err := s.mailer.SendEmail(ctx, u.Email, "Reset your password", body); err != nil {
		return "", errs.Wrap(errs.Unexpected, err, "failed to send reset email")
	}

	return "OTP sent to " + u.Email, nil
}

// ValidateForgotPasswordOtp checks the reset code of the user. An expired code is deleted.
func (s *UserService) ValidateForgotPasswordOtp(ctx context.Context, email, otp string) (string, error) {
	work := s.newUOW()
	u, err := s.getUserByEmail(ctx, work, email)
	if err != nil {
		return "", err
	}

	codes := work.ResetOTPRepository()
	code, err := codes.GetByUserID(ctx, u.ID)
	if errors.Is(err, dalerrors.ErrNotFound) {
		return "", errs.E(errs.InvalidArgument, "Invalid OTP")
	}
	if err != nil {
		return "", errs.Wrap(errs.Unexpected, err, "failed to look up reset OTP")
	}

	err = otpCheck{
		want:     code.OTP,
		attempts: code.Attempts,
		count:    func(ctx context.Context) (int, error) { return codes.IncrementAttempts(ctx, code.ID) },
		discard:  func(ctx context.Context) error { return codes.Delete(ctx, code.ID) },
	}.verify(ctx, otp)
	if err != nil {
		return "", err
	}

	now := s.now()
	if code.Expired(now) {
		if err := work.ResetOTPRepository().Delete(ctx, code.ID); err != nil {
			slog.Error("Failed to delete expired reset OTP", "user_id", u.ID, "error", err)
		}

		return "", errs.E(errs.InvalidArgument, "OTP has expired")
	}

	if err := work.ResetOTPRepository().MarkVerified(ctx, code.ID, now); err != nil {
		return "", errs.Wrap(errs.Unexpected, err, "failed to verify reset OTP")
	}

	return "OTP verified. You can now reset your password.", nil
}

// ResetPassword sets a new password once the user's reset code has been verified.
func (s *UserService) ResetPassword(ctx context.Context, email, password, confirmPassword string) (string, error) {
	if password != confirmPassword {
		return "", errs.E(errs.InvalidArgument, "Passwords do not match")
	}
	if err := s.validate.Var(password, "required,len=6"); err != nil {
		return "", errs.E(errs.InvalidArgument, "Password should be 6 characters.")
	}

	work := s.newUOW()
	u, err := s.getUserByEmail(ctx, work, email)
	if err != nil {
		return "", err
	}

	code, err := work.ResetOTPRepository().GetByUserID(ctx, u.ID)
	if errors.Is(err, dalerrors.ErrNotFound) || (err == nil && code.VerifiedAt == nil) {
		return "", errs.E(errs.InvalidArgument, "Verify the OTP before resetting the password")
	}
	if err != nil {
		return "", errs.Wrap(errs.Unexpected, err, "failed to look up reset OTP")
	}

	u.PasswordHash, err = bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", errs.Wrap(errs.Unexpected, err, "failed to hash password")
	}
	u.UpdatedAt = s.now()

	if err := work.Begin(ctx); err != nil {
		return "", errs.Wrap(errs.Unexpected, err, "failed to reset password")
	}
	defer func() {
		if err := work.Rollback(ctx); err != nil {
			slog.Error("Failed to rollback password reset", "error", err)
		}
	}()

	if _, err := s.saveUser(ctx, work, u); err != nil {
		return "", err
	}
	if err := work.ResetOTPRepository().Delete(ctx, code.ID); err != nil {
		return "", errs.Wrap(errs.Unexpected, err, "failed to reset password")
	}
	if err := work.Commit(ctx); err != nil {
		return "", errs.Wrap(errs.Unexpected, err, "failed to reset password")
	}

	return "Password reset successfully", nil
}

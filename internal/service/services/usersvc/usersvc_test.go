package usersvc

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/corray333/backend-labs/fooddelivery/internal/dal/dalerrors"
	"github.com/corray333/backend-labs/fooddelivery/internal/dal/memory"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/errs"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/user"
	"golang.org/x/crypto/bcrypt"
)

var start = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) SendEmail(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})

	return nil
}

type fixture struct {
	store  *memory.Store
	mailer *fakeMailer
	svc    *UserService
	now    time.Time
	otps   []string
}

func newFixture(t *testing.T, otps ...string) *fixture {
	t.Helper()

	f := &fixture{store: memory.NewStore(), mailer: &fakeMailer{}, now: start, otps: otps}
	f.svc = MustNewUserService(
		WithUnitOfWorkFactory(f.store.Factory()),
		WithMailer(f.mailer),
		WithSessionStore(memory.NewSessionRepository()),
		WithTokenSecret([]byte("test-secret"), time.Hour),
		WithBcryptCost(bcrypt.MinCost),
		WithClock(func() time.Time { return f.now }),
		WithOTPGenerator(func() (string, error) {
			if len(f.otps) == 0 {
				return "", errors.New("no otp queued")
			}
			otp := f.otps[0]
			f.otps = f.otps[1:]

			return otp, nil
		}),
	)

	return f
}

func candidate(username, email, mobile string) user.Candidate {
	return user.Candidate{
		Name:            "Asha Kumar",
		Username:        username,
		Email:           email,
		Gender:          "female",
		MobileNo:        mobile,
		Address:         "12 MG Road, Pune",
		Password:        "secret",
		ConfirmPassword: "secret",
	}
}

func (f *fixture) register(t *testing.T, c user.Candidate, otp string) user.User {
	t.Helper()

	ctx := context.Background()
	if _, err := f.svc.RegisterTemporaryUser(ctx, c, nil); err != nil {
		t.Fatalf("RegisterTemporaryUser: %v", err)
	}
	if _, err := f.svc.VerifyOtpToRegister(ctx, c.Email, otp); err != nil {
		t.Fatalf("VerifyOtpToRegister: %v", err)
	}

	u, err := f.store.NewUnitOfWork().UserRepository().GetByEmail(ctx, c.Email)
	if err != nil {
		t.Fatalf("registered user lookup: %v", err)
	}

	return u
}

func assertError(t *testing.T, err error, kind errs.Kind, message string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected %s error %q, got nil", kind, message)
	}
	if got := errs.KindOf(err); got != kind {
		t.Errorf("error kind = %s, want %s", got, kind)
	}
	if got := errs.MessageOf(err); got != message {
		t.Errorf("error message = %q, want %q", got, message)
	}
}

func TestGenerateOTP(t *testing.T) {
	for i := 0; i < 200; i++ {
		otp, err := generateOTP()
		if err != nil {
			t.Fatalf("generateOTP: %v", err)
		}
		n, err := strconv.Atoi(otp)
		if err != nil || len(otp) != 6 || n < otpMin || n > otpMax {
			t.Fatalf("otp %q is not a six digit code in [%d, %d]", otp, otpMin, otpMax)
		}
	}
}

func TestRegistrationValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *user.Candidate)
		message string
	}{
		{"password_mismatch_reported_first", func(c *user.Candidate) {
			c.Username = ""
			c.ConfirmPassword = "other1"
		}, "Passwords do not match"},
		{"missing_username", func(c *user.Candidate) { c.Username = "" }, "Username is required."},
		{"username_starting_with_digit", func(c *user.Candidate) { c.Username = "1asha" }, "Username is required."},
		{"email_before_mobile", func(c *user.Candidate) {
			c.Email = "not-an-email"
			c.MobileNo = "123"
		}, "Email is not valid."},
		{"unknown_gender", func(c *user.Candidate) { c.Gender = "robot" }, "Gender is required."},
		{"short_mobile", func(c *user.Candidate) { c.MobileNo = "12345" }, "Mobile number should be 10 digits."},
		{"missing_address", func(c *user.Candidate) { c.Address = "  " }, "Address is required."},
		{"short_password", func(c *user.Candidate) {
			c.Password = "abc"
			c.ConfirmPassword = "abc"
		}, "Password should be 6 characters."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "111111")
			c := candidate("asha_k", "asha@example.com", "9876543210")
			tt.mutate(&c)

			_, err := f.svc.RegisterTemporaryUser(context.Background(), c, nil)
			assertError(t, err, errs.InvalidArgument, tt.message)

			if len(f.mailer.sent) != 0 {
				t.Errorf("mail sent for an invalid registration")
			}
		})
	}
}

func TestRegistrationRejectsPicture(t *testing.T) {
	f := newFixture(t, "111111", "222222")
	c := candidate("asha_k", "asha@example.com", "9876543210")

	_, err := f.svc.RegisterTemporaryUser(context.Background(), c, []byte("plain text, not an image"))
	assertError(t, err, errs.InvalidArgument, "Profile picture must be a JPEG or PNG image.")

	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	if _, err := f.svc.RegisterTemporaryUser(context.Background(), c, png); err != nil {
		t.Fatalf("RegisterTemporaryUser with PNG: %v", err)
	}
}

func TestRegisterAndVerify(t *testing.T) {
	f := newFixture(t, "482913")
	c := candidate("asha_k", "asha@example.com", "9876543210")
	ctx := context.Background()

	msg, err := f.svc.RegisterTemporaryUser(ctx, c, nil)
	if err != nil {
		t.Fatalf("RegisterTemporaryUser: %v", err)
	}
	if msg != "OTP sent to asha@example.com. Verify it to complete registration." {
		t.Errorf("message = %q", msg)
	}
	if len(f.mailer.sent) != 1 || f.mailer.sent[0].to != c.Email {
		t.Fatalf("sent mail = %+v, want one to %s", f.mailer.sent, c.Email)
	}

	_, err = f.svc.VerifyOtpToRegister(ctx, c.Email, "000000")
	assertError(t, err, errs.InvalidArgument, "Invalid OTP")

	msg, err = f.svc.VerifyOtpToRegister(ctx, c.Email, "482913")
	if err != nil {
		t.Fatalf("VerifyOtpToRegister: %v", err)
	}
	if msg != "User registered successfully" {
		t.Errorf("message = %q", msg)
	}

	u, err := f.store.NewUnitOfWork().UserRepository().GetByEmail(ctx, c.Email)
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if !u.Verified || u.Username != "asha_k" {
		t.Errorf("user = %+v, want verified asha_k", u)
	}
	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte("secret")) != nil {
		t.Error("stored hash does not match the password")
	}

	_, err = f.svc.VerifyOtpToRegister(ctx, c.Email, "482913")
	assertError(t, err, errs.InvalidArgument, "Invalid OTP")
}

func TestRegisterRejectsTakenFields(t *testing.T) {
	tests := []struct {
		name    string
		c       user.Candidate
		message string
	}{
		{"email", candidate("other_user", "asha@example.com", "9000000000"), "Email is already registered."},
		{"username", candidate("asha_k", "other@example.com", "9000000000"), "Username is already taken."},
		{"mobile", candidate("other_user", "other@example.com", "9876543210"), "Mobile number is already registered."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "111111", "222222")
			f.register(t, candidate("asha_k", "asha@example.com", "9876543210"), "111111")

			_, err := f.svc.RegisterTemporaryUser(context.Background(), tt.c, nil)
			assertError(t, err, errs.InvalidArgument, tt.message)
		})
	}
}

func TestVerifyExpiredOTPKeepsPendingRegistration(t *testing.T) {
	f := newFixture(t, "555555")
	c := candidate("asha_k", "asha@example.com", "9876543210")
	ctx := context.Background()

	if _, err := f.svc.RegisterTemporaryUser(ctx, c, nil); err != nil {
		t.Fatalf("RegisterTemporaryUser: %v", err)
	}

	f.now = start.Add(OTPLifetime)
	_, err := f.svc.VerifyOtpToRegister(ctx, c.Email, "555555")
	assertError(t, err, errs.InvalidArgument, "OTP has expired")

	work := f.store.NewUnitOfWork()
	if _, err := work.UserRepository().GetByEmail(ctx, c.Email); !errors.Is(err, dalerrors.ErrNotFound) {
		t.Errorf("user lookup error = %v, want not found", err)
	}
	if _, err := work.TempUserRepository().GetByEmail(ctx, c.Email); err != nil {
		t.Errorf("pending registration was removed: %v", err)
	}
}

func TestSameOTPForTwoEmails(t *testing.T) {
	f := newFixture(t, "777777", "777777")
	first := candidate("asha_k", "asha@example.com", "9876543210")
	second := candidate("ravi_s", "ravi@example.com", "9123456780")
	ctx := context.Background()

	for _, c := range []user.Candidate{first, second} {
		if _, err := f.svc.RegisterTemporaryUser(ctx, c, nil); err != nil {
			t.Fatalf("RegisterTemporaryUser(%s): %v", c.Email, err)
		}
	}

	if _, err := f.svc.VerifyOtpToRegister(ctx, second.Email, "777777"); err != nil {
		t.Fatalf("VerifyOtpToRegister(%s): %v", second.Email, err)
	}

	work := f.store.NewUnitOfWork()
	u, err := work.UserRepository().GetByEmail(ctx, second.Email)
	if err != nil || u.Username != "ravi_s" {
		t.Fatalf("second user = %+v, %v; want ravi_s", u, err)
	}
	if _, err := work.UserRepository().GetByEmail(ctx, first.Email); !errors.Is(err, dalerrors.ErrNotFound) {
		t.Errorf("first email registered by the second verification")
	}

	if _, err := f.svc.VerifyOtpToRegister(ctx, first.Email, "777777"); err != nil {
		t.Fatalf("VerifyOtpToRegister(%s): %v", first.Email, err)
	}
}

func TestOTPAttemptsAreCapped(t *testing.T) {
	tooMany := "Too many invalid attempts. Request a new OTP."

	t.Run("registration", func(t *testing.T) {
		f := newFixture(t, "482913", "246810")
		c := candidate("asha_k", "asha@example.com", "9876543210")
		ctx := context.Background()

		if _, err := f.svc.RegisterTemporaryUser(ctx, c, nil); err != nil {
			t.Fatalf("RegisterTemporaryUser: %v", err)
		}
		for i := 1; i < MaxOTPAttempts; i++ {
			_, err := f.svc.VerifyOtpToRegister(ctx, c.Email, "000000")
			assertError(t, err, errs.InvalidArgument, "Invalid OTP")
		}
		_, err := f.svc.VerifyOtpToRegister(ctx, c.Email, "000000")
		assertError(t, err, errs.InvalidArgument, tooMany)

		_, err = f.svc.VerifyOtpToRegister(ctx, c.Email, "482913")
		assertError(t, err, errs.InvalidArgument, "Invalid OTP")

		if _, err := f.svc.RegisterTemporaryUser(ctx, c, nil); err != nil {
			t.Fatalf("second RegisterTemporaryUser: %v", err)
		}
		if _, err := f.svc.VerifyOtpToRegister(ctx, c.Email, "246810"); err != nil {
			t.Fatalf("VerifyOtpToRegister after a new code: %v", err)
		}
	})

	t.Run("password_reset", func(t *testing.T) {
		f := newFixture(t, "111111", "654321")
		f.register(t, candidate("asha_k", "asha@example.com", "9876543210"), "111111")
		ctx := context.Background()

		if _, err := f.svc.RequestPasswordReset(ctx, "asha@example.com"); err != nil {
			t.Fatalf("RequestPasswordReset: %v", err)
		}
		for i := 1; i < MaxOTPAttempts; i++ {
			_, err := f.svc.ValidateForgotPasswordOtp(ctx, "asha@example.com", "000000")
			assertError(t, err, errs.InvalidArgument, "Invalid OTP")
		}
		_, err := f.svc.ValidateForgotPasswordOtp(ctx, "asha@example.com", "000000")
		assertError(t, err, errs.InvalidArgument, tooMany)

		_, err = f.svc.ValidateForgotPasswordOtp(ctx, "asha@example.com", "654321")
		assertError(t, err, errs.InvalidArgument, "Invalid OTP")
		_, err = f.svc.ResetPassword(ctx, "asha@example.com", "newpw1", "newpw1")
		assertError(t, err, errs.InvalidArgument, "Verify the OTP before resetting the password")
	})
}

func TestUnknownUsernameStillHashes(t *testing.T) {
	f := newFixture(t)

	cost, err := bcrypt.Cost(f.svc.dummyHash)
	if err != nil {
		t.Fatalf("dummy hash is not a bcrypt hash: %v", err)
	}
	if cost != bcrypt.MinCost {
		t.Errorf("dummy hash cost = %d, want the configured %d", cost, bcrypt.MinCost)
	}
}

func TestLoginAndValidateSession(t *testing.T) {
	f := newFixture(t, "123456")
	registered := f.register(t, candidate("asha_k", "asha@example.com", "9876543210"), "123456")
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"unknown_username", "nobody", "secret"},
		{"wrong_password", "asha_k", "wrong1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.svc.Login(ctx, tt.username, tt.password)
			assertError(t, err, errs.NotFound, "Invalid username or password")
		})
	}

	u, token, err := f.svc.Login(ctx, "asha_k", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if u.ID != registered.ID || token == "" {
		t.Fatalf("login = (%d, %q), want user %d with a token", u.ID, token, registered.ID)
	}

	userID, err := f.svc.ValidateSession(ctx, token)
	if err != nil {
		t.Fatalf("ValidateSession: %v", err)
	}
	if userID != registered.ID {
		t.Errorf("session user = %d, want %d", userID, registered.ID)
	}

	_, newer, err := f.svc.Login(ctx, "asha_k", "secret")
	if err != nil {
		t.Fatalf("second Login: %v", err)
	}
	_, err = f.svc.ValidateSession(ctx, token)
	assertError(t, err, errs.Unauthorized, "Session has been replaced")
	if _, err := f.svc.ValidateSession(ctx, newer); err != nil {
		t.Errorf("ValidateSession(newer): %v", err)
	}

	_, err = f.svc.ValidateSession(ctx, "not.a.token")
	assertError(t, err, errs.Unauthorized, "Invalid or expired session")

	f.now = start.Add(2 * time.Hour)
	_, err = f.svc.ValidateSession(ctx, newer)
	assertError(t, err, errs.Unauthorized, "Invalid or expired session")
}

func TestUpdateUser(t *testing.T) {
	f := newFixture(t, "111111", "222222")
	asha := f.register(t, candidate("asha_k", "asha@example.com", "9876543210"), "111111")
	f.register(t, candidate("ravi_s", "ravi@example.com", "9123456780"), "222222")
	ctx := context.Background()

	updated, err := f.svc.UpdateUser(ctx, asha.ID, user.Candidate{Address: "7 Park Street", Password: "newpw1", ConfirmPassword: "newpw1"}, nil)
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	if updated.Address != "7 Park Street" || updated.Email != asha.Email {
		t.Errorf("updated = %+v, want new address and unchanged email", updated)
	}
	if _, _, err := f.svc.Login(ctx, "asha_k", "newpw1"); err != nil {
		t.Errorf("Login with updated password: %v", err)
	}

	_, err = f.svc.UpdateUser(ctx, asha.ID, user.Candidate{Email: "ravi@example.com"}, nil)
	assertError(t, err, errs.InvalidArgument, "Email is already registered.")

	if _, err := f.svc.UpdateUser(ctx, asha.ID, user.Candidate{Email: asha.Email}, nil); err != nil {
		t.Errorf("UpdateUser with own email: %v", err)
	}

	_, err = f.svc.UpdateUser(ctx, 99, user.Candidate{Address: "7 Park Street"}, nil)
	assertError(t, err, errs.NotFound, "user 99 not found")
}

func TestProfilePictureAndDelete(t *testing.T) {
	f := newFixture(t, "111111")
	asha := f.register(t, candidate("asha_k", "asha@example.com", "9876543210"), "111111")
	ctx := context.Background()

	jpeg := []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00")
	withPicture, err := f.svc.UpdateUser(ctx, asha.ID, user.Candidate{}, jpeg)
	if err != nil {
		t.Fatalf("UpdateUser with picture: %v", err)
	}
	if len(withPicture.ProfilePicture) == 0 {
		t.Fatal("picture not stored")
	}

	cleared, err := f.svc.DeleteProfilePicture(ctx, asha.ID)
	if err != nil {
		t.Fatalf("DeleteProfilePicture: %v", err)
	}
	if cleared.ProfilePicture != nil {
		t.Error("picture not removed")
	}

	if err := f.svc.DeleteUser(ctx, asha.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	_, err = f.svc.GetUserByID(ctx, asha.ID)
	assertError(t, err, errs.NotFound, "user 1 not found")

	err = f.svc.DeleteUser(ctx, asha.ID)
	assertError(t, err, errs.NotFound, "user 1 not found")

	_, err = f.svc.GetMessagesByUserID(ctx, asha.ID)
	assertError(t, err, errs.NotFound, "user 1 not found")
}

func TestPasswordReset(t *testing.T) {
	f := newFixture(t, "111111", "654321")
	f.register(t, candidate("asha_k", "asha@example.com", "9876543210"), "111111")
	ctx := context.Background()

	_, err := f.svc.RequestPasswordReset(ctx, "nobody@example.com")
	assertError(t, err, errs.NotFound, "No user registered with email nobody@example.com")

	msg, err := f.svc.RequestPasswordReset(ctx, "asha@example.com")
	if err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}
	if msg != "OTP sent to asha@example.com" {
		t.Errorf("message = %q", msg)
	}
	if last := f.mailer.sent[len(f.mailer.sent)-1]; last.subject != "Reset your password" {
		t.Errorf("last mail subject = %q", last.subject)
	}

	_, err = f.svc.ResetPassword(ctx, "asha@example.com", "newpw1", "newpw1")
	assertError(t, err, errs.InvalidArgument, "Verify the OTP before resetting the password")

	_, err = f.svc.ValidateForgotPasswordOtp(ctx, "asha@example.com", "000000")
	assertError(t, err, errs.InvalidArgument, "Invalid OTP")

	if _, err := f.svc.ValidateForgotPasswordOtp(ctx, "asha@example.com", "654321"); err != nil {
		t.Fatalf("ValidateForgotPasswordOtp: %v", err)
	}

	checks := []struct {
		name     string
		password string
		confirm  string
		message  string
	}{
		{"mismatch", "newpw1", "newpw2", "Passwords do not match"},
		{"too_short", "abc", "abc", "Password should be 6 characters."},
	}
	for _, tt := range checks {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.ResetPassword(ctx, "asha@example.com", tt.password, tt.confirm)
			assertError(t, err, errs.InvalidArgument, tt.message)
		})
	}

	msg, err = f.svc.ResetPassword(ctx, "asha@example.com", "newpw1", "newpw1")
	if err != nil {
		t.Fatalf("ResetPassword: %v", err)
	}
	if msg != "Password reset successfully" {
		t.Errorf("message = %q", msg)
	}

	if _, _, err := f.svc.Login(ctx, "asha_k", "newpw1"); err != nil {
		t.Errorf("Login with new password: %v", err)
	}
	if _, _, err := f.svc.Login(ctx, "asha_k", "secret"); err == nil {
		t.Error("old password still accepted")
	}

	_, err = f.svc.ResetPassword(ctx, "asha@example.com", "again1", "again1")
	assertError(t, err, errs.InvalidArgument, "Verify the OTP before resetting the password")
}

func TestResetOTPExpires(t *testing.T) {
	f := newFixture(t, "111111", "654321")
	f.register(t, candidate("asha_k", "asha@example.com", "9876543210"), "111111")
	ctx := context.Background()

	if _, err := f.svc.RequestPasswordReset(ctx, "asha@example.com"); err != nil {
		t.Fatalf("RequestPasswordReset: %v", err)
	}

	f.now = start.Add(OTPLifetime + time.Second)
	_, err := f.svc.ValidateForgotPasswordOtp(ctx, "asha@example.com", "654321")
	assertError(t, err, errs.InvalidArgument, "OTP has expired")

	_, err = f.svc.ValidateForgotPasswordOtp(ctx, "asha@example.com", "654321")
	assertError(t, err, errs.InvalidArgument, "Invalid OTP")
}

func TestMailerFailure(t *testing.T) {
	f := newFixture(t, "111111")
	f.mailer.err = errors.New("smtp down")

	_, err := f.svc.RegisterTemporaryUser(context.Background(), candidate("asha_k", "asha@example.com", "9876543210"), nil)
	if got := errs.KindOf(err); err == nil || got != errs.Unexpected {
		t.Fatalf("error = %v, want an unexpected failure", err)
	}
}

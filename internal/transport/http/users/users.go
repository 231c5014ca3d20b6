package users

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/corray333/backend-labs/fooddelivery/internal/service/errs"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/message"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/user"
	"github.com/corray333/backend-labs/fooddelivery/internal/transport/http/respond"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"
)

const maxUploadBytes = 5 << 20

type service interface {
	RegisterTemporaryUser(ctx context.Context, c user.Candidate, picture []byte) (string, error)
	VerifyOtpToRegister(ctx context.Context, email, otp string) (string, error)
	Login(ctx context.Context, username, password string) (user.User, string, error)
	ValidateSession(ctx context.Context, token string) (int64, error)
	GetUserByID(ctx context.Context, userID int64) (user.User, error)
	GetAllUsers(ctx context.Context) ([]user.User, error)
	UpdateUser(ctx context.Context, userID int64, c user.Candidate, picture []byte) (user.User, error)
	DeleteProfilePicture(ctx context.Context, userID int64) (user.User, error)
	DeleteUser(ctx context.Context, userID int64) error
	RequestPasswordReset(ctx context.Context, email string) (string, error)
	ValidateForgotPasswordOtp(ctx context.Context, email, otp string) (string, error)
	ResetPassword(ctx context.Context, email, password, confirmPassword string) (string, error)
	GetMessagesByUserID(ctx context.Context, userID int64) ([]message.Message, error)
}

// Handler serves the routes of the package.
type Handler struct {
	service service
}

//goland:noinspection GoExportedFuncWithUnexportedType
func NewHandler(service service) *Handler {
	return &Handler{service: service}
}

var (
	decoder  = newDecoder()
	validate = validator.New()
)

func newDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)

	return d
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		respond.BadRequest(w, r, "user id must be a positive integer")

		return 0, false
	}

	return id, true
}

// readMultipartUser reads the `userData` JSON part and the optional `profilePicture` file.
func readMultipartUser(r *http.Request, requireData bool) (user.Candidate, []byte, error) {
	var c user.Candidate

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return c, nil, errs.Wrap(errs.InvalidArgument, err, "request must be multipart/form-data")
	}

	data := r.FormValue("userData")
	if data == "" && requireData {
		return c, nil, errs.E(errs.InvalidArgument, "userData is required")
	}
	if data != "" {
		if err := json.Unmarshal([]byte(data), &c); err != nil {
			return c, nil, errs.Wrap(errs.InvalidArgument, err, "userData must be a JSON object")
		}
	}

	file, _, err := r.FormFile("profilePicture")
	if errors.Is(err, http.ErrMissingFile) {
		return c, nil, nil
	}
	if err != nil {
		return c, nil, errs.Wrap(errs.InvalidArgument, err, "failed to read profilePicture")
	}
	defer file.Close()

	picture, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		return c, nil, errs.Wrap(errs.Unexpected, err, "failed to read profilePicture")
	}
	if len(picture) > maxUploadBytes {
		return c, nil, errs.E(errs.InvalidArgument, "profilePicture is too large")
	}

	return c, picture, nil
}

// Register handles POST /api/users/user/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	c, picture, err := readMultipartUser(r, true)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	msg, err := h.service.RegisterTemporaryUser(r.Context(), c, picture)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.Message(w, msg)
}

type verifyOtpRequest struct {
	Email string `schema:"email" validate:"required,email"`
	OTP   string `schema:"otp"   validate:"required,numeric,len=6"`
}

// VerifyOtpToRegister handles POST /api/users/user/verifyOtpToRegisterUser?email&otp.
func (h *Handler) VerifyOtpToRegister(w http.ResponseWriter, r *http.Request) {
	req := verifyOtpRequest{}
	if err := decoder.Decode(&req, r.URL.Query()); err != nil {
		respond.BadRequest(w, r, "email and otp are required")

		return
	}
	if err := validate.Struct(&req); err != nil {
		respond.BadRequest(w, r, "Invalid OTP")

		return
	}

	msg, err := h.service.VerifyOtpToRegister(r.Context(), req.Email, req.OTP)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.Message(w, msg)
}

// Login handles POST /api/users/user/login/{username}/{password}.
// Wrong credentials are 401 and the session token is returned in the Authorization header.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	u, token, err := h.service.Login(r.Context(), chi.URLParam(r, "username"), chi.URLParam(r, "password"))
	if err != nil {
		if errs.KindOf(err) == errs.NotFound {
			respond.ErrorWithStatus(w, r, http.StatusUnauthorized, err)

			return
		}
		respond.Error(w, r, err)

		return
	}

	w.Header().Set("Authorization", "Bearer "+token)
	respond.JSON(w, http.StatusOK, u)
}

// ValidateSession handles GET /api/users/user/validate.
func (h *Handler) ValidateSession(w http.ResponseWriter, r *http.Request) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		respond.Error(w, r, errs.E(errs.Unauthorized, "missing bearer token"))

		return
	}

	userID, err := h.service.ValidateSession(r.Context(), token)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusOK, map[string]int64{"userId": userID})
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "userId")
	if !ok {
		return
	}

	u, err := h.service.GetUserByID(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusOK, u)
}

func (h *Handler) GetAllUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.GetAllUsers(r.Context())
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusOK, list)
}

// Update handles PUT /api/users/user/update/{id}. Every part is optional.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	c, picture, err := readMultipartUser(r, false)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	u, err := h.service.UpdateUser(r.Context(), id, c, picture)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusOK, u)
}

func (h *Handler) DeleteProfilePicture(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "userId")
	if !ok {
		return
	}

	u, err := h.service.DeleteProfilePicture(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusOK, u)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		respond.Error(w, r, err)

		return
	}

	slog.Info("User deleted", "user_id", id)
	respond.Message(w, "User deleted successfully")
}

// ForgotPassword handles POST /api/users/user/verifyMail/{email}.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	msg, err := h.service.RequestPasswordReset(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.Message(w, msg)
}

type verifyForgotPasswordOtpRequest struct {
	OTP       string `schema:"otp"       validate:"required"`
	UserEmail string `schema:"userEmail" validate:"required"`
}

// VerifyForgotPasswordOtp handles POST /api/users/user/verifyForgotPasswordOtp?otp&userEmail.
func (h *Handler) VerifyForgotPasswordOtp(w http.ResponseWriter, r *http.Request) {
	req := verifyForgotPasswordOtpRequest{}
	if err := decoder.Decode(&req, r.URL.Query()); err != nil {
		respond.BadRequest(w, r, "otp and userEmail are required")

		return
	}
	if err := validate.Struct(&req); err != nil {
		respond.BadRequest(w, r, "otp and userEmail are required")

		return
	}

	msg, err := h.service.ValidateForgotPasswordOtp(r.Context(), req.UserEmail, req.OTP)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.Message(w, msg)
}

type resetPasswordRequest struct {
	Password        string `json:"password"        validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

// ResetPassword handles POST /api/users/user/resetPassword/{email}.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	req := resetPasswordRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, r, "body must be a JSON object with password and confirmPassword")

		return
	}
	if err := validate.Struct(&req); err != nil {
		respond.BadRequest(w, r, "password and confirmPassword are required")

		return
	}

	msg, err := h.service.ResetPassword(r.Context(), chi.URLParam(r, "email"), req.Password, req.ConfirmPassword)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.Message(w, msg)
}

// GetMessages handles GET /api/messages/byUserId/{userId}.
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "userId")
	if !ok {
		return
	}

	msgs, err := h.service.GetMessagesByUserID(r.Context(), id)
	if err != nil {
		respond.Error(w, r, err)

		return
	}

	respond.JSON(w, http.StatusOK, msgs)
}

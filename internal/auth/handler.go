package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/quillpad/identity/internal/api"
	"github.com/quillpad/identity/internal/throttle"
)

type Handler struct {
	service  *Service
	throttle *throttle.Throttle
	validate *validator.Validate
	log      *zap.Logger
}

func NewHandler(service *Service, t *throttle.Throttle, log *zap.Logger) *Handler {
	v := validator.New()
	// Report fields by their json names so the envelope matches the wire.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Handler{
		service:  service,
		throttle: t,
		validate: v,
		log:      log,
	}
}

type registerRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

type loginResponse struct {
	Status   int    `json:"status"`
	ID       uint   `json:"id"`
	FullName string `json:"full_name"`
	Token    string `json:"token"`
	Message  string `json:"message"`
}

type meResponse struct {
	ID       uint   `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Verified bool   `json:"verified"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decode(w, r, &req) {
		return
	}

	h.log.Info("handling register request", zap.String("email", req.Email))

	if err := h.service.RegisterUser(req.FullName, req.Email, req.Password); err != nil {
		if errors.Is(err, ErrUserExists) {
			api.WriteError(w, http.StatusConflict, "User already exists",
				"A user with the provided information already exists in the system.")
			return
		}
		h.log.Error("failed to register user", zap.Error(err))
		h.internalError(w)
		return
	}

	api.WriteMessage(w, http.StatusCreated, "Please check your email to verify your account.")
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}

	key := throttle.ClientKey(r)

	user, token, err := h.service.Login(req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotVerified):
			api.WriteError(w, http.StatusForbidden, "Forbidden", "User not verified")
		case errors.Is(err, ErrInvalidCredentials):
			// Counted before the response goes out so concurrent probes
			// cannot slip under the threshold.
			h.throttle.RecordFailure(r.Context(), key)
			api.WriteError(w, http.StatusBadRequest, "Bad Request", "Invalid credentials")
		default:
			h.log.Error("login failed", zap.String("email", req.Email), zap.Error(err))
			h.internalError(w)
		}
		return
	}

	h.throttle.RecordSuccess(r.Context(), key)
	h.setSessionCookie(w, token)
	api.WriteJSON(w, http.StatusOK, loginResponse{
		Status:   http.StatusOK,
		ID:       user.ID,
		FullName: user.FullName,
		Token:    token,
		Message:  "Logged in successfully",
	})
}

// Logout clears the session cookie. Session tokens are not tracked server
// side, so this is advisory until the token expires on its own.
func (h *Handler) Logout(w http.ResponseWriter, _ *http.Request) {
	h.clearSessionCookie(w)
	api.WriteMessage(w, http.StatusOK, "Logged out successfully")
}

func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		api.WriteError(w, http.StatusBadRequest, "Bad Request", "Verification token is required")
		return
	}

	if err := h.service.VerifyEmail(token); err != nil {
		switch {
		case errors.Is(err, ErrTokenNotFound):
			api.WriteError(w, http.StatusNotFound, "Not Found", "Invalid verification token")
		case errors.Is(err, ErrTokenExpired):
			api.WriteError(w, http.StatusBadRequest, "Bad Request", "Verification token has expired")
		default:
			h.log.Error("email verification failed", zap.Error(err))
			h.internalError(w)
		}
		return
	}

	api.WriteMessage(w, http.StatusOK, "User verified successfully")
}

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.ForgotPassword(req.Email); err != nil {
		h.log.Error("forgot password failed", zap.Error(err))
		h.internalError(w)
		return
	}

	// Same response whether or not the account exists.
	api.WriteMessage(w, http.StatusOK, "Link has been sent to your email!")
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		api.WriteError(w, http.StatusBadRequest, "Bad Request", "Invalid or expired token")
		return
	}

	var req resetPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.ResetPassword(token, req.NewPassword); err != nil {
		if errors.Is(err, ErrTokenExpired) {
			api.WriteError(w, http.StatusBadRequest, "Bad Request", "Invalid or expired token")
			return
		}
		h.log.Error("password reset failed", zap.Error(err))
		h.internalError(w)
		return
	}

	api.WriteMessage(w, http.StatusOK, "Password reset successful")
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := UserFromContext(r.Context())
	if err != nil {
		api.WriteError(w, http.StatusUnauthorized, "Unauthorized", "Authorization failed")
		return
	}

	api.WriteJSON(w, http.StatusOK, meResponse{
		ID:       user.ID,
		FullName: user.FullName,
		Email:    user.Email,
		Verified: user.Verified,
	})
}

// decode parses the JSON body into dst and validates it, writing the error
// envelope itself when either step fails.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		api.WriteError(w, http.StatusBadRequest, "Bad Request", "Invalid request body")
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			h.internalError(w)
			return false
		}

		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]api.FieldError, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, api.FieldError{
					Field:   fe.Field(),
					Message: fieldErrorMessage(fe),
				})
			}
			api.WriteValidationError(w, fields)
			return false
		}

		h.internalError(w)
		return false
	}

	return true
}

var fieldLabels = map[string]string{
	"full_name":    "Full name",
	"email":        "Email",
	"password":     "Password",
	"new_password": "New password",
}

func fieldErrorMessage(fe validator.FieldError) string {
	label, ok := fieldLabels[fe.Field()]
	if !ok {
		label = fe.Field()
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s field is required", label)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", label)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", label)
	}
}

func (h *Handler) internalError(w http.ResponseWriter) {
	api.WriteError(w, http.StatusInternalServerError, "Internal Server Error",
		"An internal server error occurred.")
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

package usersvc

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/corray333/backend-labs/fooddelivery/internal/service/errs"
	"github.com/corray333/backend-labs/fooddelivery/internal/service/models/user"
	"github.com/go-playground/validator/v10"
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.]{2,29}$`)
	mobilePattern   = regexp.MustCompile(`^[0-9]{10}$`)
	addressPattern  = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9\s,./#'()-]*$`)
)

var genders = map[string]bool{"male": true, "female": true, "other": true}

// fieldRule pairs a validator tag with the message reported when it fails.
type fieldRule struct {
	value   func(c user.Candidate) string
	tag     string
	message string
}

// registrationRules run in this order; the first failure is reported.
var registrationRules = []fieldRule{
	{func(c user.Candidate) string { return c.Username }, "required,username", "Username is required."},
	{func(c user.Candidate) string { return c.Email }, "required,email", "Email is not valid."},
	{func(c user.Candidate) string { return c.Gender }, "required,gender", "Gender is required."},
	{func(c user.Candidate) string { return c.MobileNo }, "required,mobile", "Mobile number should be 10 digits."},
	{func(c user.Candidate) string { return c.Address }, "required,address", "Address is required."},
	{func(c user.Candidate) string { return c.Password }, "required,len=6", "Password should be 6 characters."},
	{func(c user.Candidate) string { return c.ConfirmPassword }, "required,len=6", "Confirm Password should be 6 characters."},
}

func newValidator() *validator.Validate {
	v := validator.New()
	mustRegister(v, "username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "gender", func(fl validator.FieldLevel) bool {
		return genders[strings.ToLower(fl.Field().String())]
	})
	mustRegister(v, "mobile", func(fl validator.FieldLevel) bool {
		return mobilePattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "address", func(fl validator.FieldLevel) bool {
		return addressPattern.MatchString(strings.TrimSpace(fl.Field().String()))
	})

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// validateCandidate checks a registration. The password match is checked before the fields.
func (s *UserService) validateCandidate(c user.Candidate) error {
	if c.Password != c.ConfirmPassword {
		return errs.E(errs.InvalidArgument, "Passwords do not match")
	}

	for _, rule := range registrationRules {
		if err := s.validate.Var(rule.value(c), rule.tag); err != nil {
			return errs.E(errs.InvalidArgument, rule.message)
		}
	}

	return nil
}

// validateUpdate checks only the fields present in an update.
func (s *UserService) validateUpdate(c user.Candidate) error {
	if c.Password != "" && c.Password != c.ConfirmPassword {
		return errs.E(errs.InvalidArgument, "Passwords do not match")
	}

	for _, rule := range registrationRules {
		value := rule.value(c)
		if value == "" {
			continue
		}
		if err := s.validate.Var(value, rule.tag); err != nil {
			return errs.E(errs.InvalidArgument, rule.message)
		}
	}

	return nil
}

var allowedPictureTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

func validatePicture(picture []byte) error {
	if len(picture) == 0 {
		return nil
	}

	if !allowedPictureTypes[http.DetectContentType(picture)] {
		return errs.E(errs.InvalidArgument, "Profile picture must be a JPEG or PNG image.")
	}

	return nil
}

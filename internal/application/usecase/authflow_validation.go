// internal/application/usecase/authflow_validation.go
package usecase

import (
	"net/mail"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/asaskevich/govalidator"
)

// Field names used as FieldErrors keys. They match the form input names.
const (
	FieldName            = "name"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldPasswordConfirm = "passwordConfirm"
)

const (
	minNameLen     = 2
	minPasswordLen = 6
)

// Messages shown next to the inputs.
const (
	MsgEmailRequired           = "E-mail é obrigatório"
	MsgEmailInvalid            = "E-mail inválido"
	MsgNameTooShort            = "Nome deve ter no mínimo 2 caracteres"
	MsgPasswordTooShort        = "Senha deve ter no mínimo 6 caracteres"
	MsgPasswordConfirmRequired = "Confirmação de senha é obrigatória"
	MsgPasswordMismatch        = "As senhas não conferem"
)

// FieldErrors maps a form field to its validation messages.
type FieldErrors map[string][]string

func (fe FieldErrors) Add(field, msg string) {
	fe[field] = append(fe[field], msg)
}

func (fe FieldErrors) Has(field string) bool {
	return len(fe[field]) > 0
}

func (fe FieldErrors) Empty() bool {
	return len(fe) == 0
}

// Fields returns the failing field names, sorted.
func (fe FieldErrors) Fields() []string {
	out := make([]string, 0, len(fe))
	for k := range fe {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (fe FieldErrors) Clone() FieldErrors {
	if fe == nil {
		return FieldErrors{}
	}
	out := make(FieldErrors, len(fe))
	for k, v := range fe {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// ============================================================
// Forms
// ============================================================

type SignInForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignUpForm struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

func (f SignInForm) normalized() SignInForm {
	f.Email = normalizeEmail(f.Email)
	return f
}

func (f SignUpForm) normalized() SignUpForm {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = normalizeEmail(f.Email)
	return f
}

func validateEmailStep(email string) FieldErrors {
	fe := FieldErrors{}
	checkEmail(fe, email)
	return fe
}

func validateSignIn(f SignInForm) FieldErrors {
	fe := FieldErrors{}
	checkEmail(fe, f.Email)
	checkPassword(fe, f.Password)
	return fe
}

// validateSignUp reports the confirmation mismatch on passwordConfirm only.
func validateSignUp(f SignUpForm) FieldErrors {
	fe := FieldErrors{}
	if utf8.RuneCountInString(f.Name) < minNameLen {
		fe.Add(FieldName, MsgNameTooShort)
	}
	checkEmail(fe, f.Email)
	checkPassword(fe, f.Password)

	if f.PasswordConfirm == "" {
		fe.Add(FieldPasswordConfirm, MsgPasswordConfirmRequired)
	} else if f.PasswordConfirm != f.Password {
		fe.Add(FieldPasswordConfirm, MsgPasswordMismatch)
	}
	return fe
}

func checkEmail(fe FieldErrors, email string) {
	if email == "" {
		fe.Add(FieldEmail, MsgEmailRequired)
		return
	}
	if !IsValidEmail(email) {
		fe.Add(FieldEmail, MsgEmailInvalid)
	}
}

func checkPassword(fe FieldErrors, pw string) {
	if utf8.RuneCountInString(pw) < minPasswordLen {
		fe.Add(FieldPassword, MsgPasswordTooShort)
	}
}

// IsValidEmail accepts a bare address (no display name) with a dotted domain.
func IsValidEmail(s string) bool {
	v := strings.TrimSpace(s)
	if v == "" || v != s {
		return false
	}
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Address != v || addr.Name != "" {
		return false
	}
	at := strings.LastIndex(v, "@")
	if at <= 0 || !strings.Contains(v[at+1:], ".") {
		return false
	}
	return govalidator.IsEmail(v)
}

func normalizeEmail(s string) string {
	return strings.TrimSpace(s)
}

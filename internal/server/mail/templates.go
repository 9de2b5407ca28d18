package mail

import (
	"fmt"
	"html/template"
	"net/url"
	"strings"
)

const verificationSubject = "Finish Logging In"
const resetSubject = "Reset Your Password"

const verificationTmpl = `
<html>
  <body>
    <h2>Welcome {{.Name}},</h2>
    <p>Please click the link below to verify your email:</p>
    <a href="{{.Link}}">Verify Email</a>
  </body>
</html>
`

const resetTmpl = `
<html>
  <body>
    <h2>Hello {{.Name}},</h2>
    <p>Please click the link below to reset your password:</p>
    <a href="{{.Link}}">Reset Password</a>
  </body>
</html>
`

// Renderer produces the HTML bodies of the lifecycle emails, embedding the
// confirmation links. Pure; holds only parsed templates and the base URLs.
type Renderer struct {
	verification *template.Template
	reset        *template.Template
	appBaseURL   string
	apiBaseURL   string
}

// NewRenderer builds a Renderer. appBaseURL is the user-facing application,
// apiBaseURL this service (the verification link points back here).
func NewRenderer(appBaseURL, apiBaseURL string) *Renderer {
	return &Renderer{
		verification: template.Must(template.New("verification").Parse(verificationTmpl)),
		reset:        template.Must(template.New("reset").Parse(resetTmpl)),
		appBaseURL:   strings.TrimRight(appBaseURL, "/"),
		apiBaseURL:   strings.TrimRight(apiBaseURL, "/"),
	}
}

type linkData struct {
	Name string
	Link string
}

// VerificationEmail renders the signup confirmation message.
func (r *Renderer) VerificationEmail(firstName, token string) (subject, body string, err error) {
	link := fmt.Sprintf("%s/auth/verifyEmail?token=%s", r.apiBaseURL, url.QueryEscape(token))
	body, err = r.render(r.verification, linkData{Name: firstName, Link: link})
	return verificationSubject, body, err
}

// ResetEmail renders the password reset message.
func (r *Renderer) ResetEmail(email, firstName, token string) (subject, body string, err error) {
	q := url.Values{}
	q.Set("email", email)
	q.Set("token", token)
	link := fmt.Sprintf("%s/resetPassword?%s", r.appBaseURL, q.Encode())
	body, err = r.render(r.reset, linkData{Name: firstName, Link: link})
	return resetSubject, body, err
}

func (r *Renderer) render(t *template.Template, data linkData) (string, error) {
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("rendering %s template: %w", t.Name(), err)
	}
	return sb.String(), nil
}

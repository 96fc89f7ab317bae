package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

const productName = "Project Camp"

type action struct {
	Product      string
	Name         string
	Intro        string
	Instructions string
	ButtonText   string
	ButtonColor  string
	Link         string
	Outro        string
}

var actionTemplate = template.Must(template.New("action").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif;">
  <h2>{{.Product}}</h2>
  <p>Hi {{.Name}},</p>
  <p>{{.Intro}}</p>
  <p>{{.Instructions}}</p>
  <p><a href="{{.Link}}" style="background:{{.ButtonColor}};color:#fff;padding:10px 16px;text-decoration:none;border-radius:4px;">{{.ButtonText}}</a></p>
  <p>{{.Outro}}</p>
</body>
</html>`))

func render(a action, subject, toName, toEmail string) Message {
	a.Product = productName
	var html bytes.Buffer
	if err := actionTemplate.Execute(&html, a); err != nil {
		// Static template; a failure only drops the HTML part.
		html.Reset()
	}
	plain := fmt.Sprintf("Hi %s,\n\n%s\n\n%s\n%s\n\n%s\n", a.Name, a.Intro, a.Instructions, a.Link, a.Outro)

	return Message{
		ToName:    toName,
		ToEmail:   toEmail,
		Subject:   subject,
		PlainText: plain,
		HTML:      html.String(),
	}
}

func VerificationEmail(username, email, verificationURL string) Message {
	return render(action{
		Name:         username,
		Intro:        "Welcome to Project Camp, we're excited to have you on board.",
		Instructions: "To verify your email please click on the following button.",
		ButtonText:   "Verify your email",
		ButtonColor:  "#22BC66",
		Link:         verificationURL,
		Outro:        "Need help, or have questions? Just reply to this email, we would love to help!",
	}, "Please verify your email", username, email)
}

func PasswordResetEmail(username, email, resetURL string) Message {
	return render(action{
		Name:         username,
		Intro:        "We got a request to reset the password of your account.",
		Instructions: "To reset your password please click on the following button or link.",
		ButtonText:   "Reset password",
		ButtonColor:  "#E617C0",
		Link:         resetURL,
		Outro:        "If you did not ask for this, you can ignore this email.",
	}, "Password reset request", username, email)
}

package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/talentsift/talentsift/internal/logging"
)

type Service struct {
	smtpHost     string
	smtpPort     string
	smtpUser     string
	smtpPassword string
	fromEmail    string
}

func NewService(smtpHost, smtpPort, smtpUser, smtpPassword string) *Service {
	return &Service{
		smtpHost:     smtpHost,
		smtpPort:     smtpPort,
		smtpUser:     smtpUser,
		smtpPassword: smtpPassword,
		fromEmail:    smtpUser,
	}
}

// SendVerificationCode sends the signup verification code to the user
// This method is designed to be called in a goroutine
func (s *Service) SendVerificationCode(ctx context.Context, toEmail, code string) error {
	logger := logging.GetLoggerFromContext(ctx)

	subject := "Your verification code"
	body, err := s.renderCodeEmailTemplate(verificationTmpl, code)
	if err != nil {
		logger.Error("failed to render email template", "error", err)
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.sendEmail(toEmail, subject, body); err != nil {
		logger.Error("failed to send verification email", "email", toEmail, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("verification email sent", "email", toEmail)
	return nil
}

// SendPasswordResetCode sends a password reset code to the user
// This method is designed to be called in a goroutine
func (s *Service) SendPasswordResetCode(ctx context.Context, toEmail, code string) error {
	logger := logging.GetLoggerFromContext(ctx)

	subject := "Your password reset code"
	body, err := s.renderCodeEmailTemplate(passwordResetTmpl, code)
	if err != nil {
		logger.Error("failed to render password reset email template", "error", err)
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.sendEmail(toEmail, subject, body); err != nil {
		logger.Error("failed to send password reset email", "email", toEmail, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("password reset email sent", "email", toEmail)
	return nil
}

func (s *Service) sendEmail(to, subject, body string) error {
	auth := smtp.PlainAuth("", s.smtpUser, s.smtpPassword, s.smtpHost)

	// Build message
	msg := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		s.fromEmail, to, subject, body,
	))

	addr := fmt.Sprintf("%s:%s", s.smtpHost, s.smtpPort)
	return smtp.SendMail(addr, auth, s.fromEmail, []string{to}, msg)
}

type codeEmail struct {
	Title   string
	Heading string
	Intro   string
	Outro   string
}

var verificationTmpl = codeEmail{
	Title:   "Welcome!",
	Heading: "Verify your email address",
	Intro:   "Thank you for signing up! Enter the code below to verify your email address and activate your account.",
	Outro:   "If you didn't create an account, you can safely ignore this email.",
}

var passwordResetTmpl = codeEmail{
	Title:   "Password Reset Request",
	Heading: "Reset your password",
	Intro:   "You requested to reset your password. Enter the code below to choose a new one.",
	Outro:   "If you didn't request a password reset, you can safely ignore this email. Your password will remain unchanged.",
}

func (s *Service) renderCodeEmailTemplate(kind codeEmail, code string) (string, error) {
	tmpl := `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body {
            font-family: Arial, sans-serif;
            line-height: 1.6;
            color: #333;
            max-width: 600px;
            margin: 0 auto;
            padding: 20px;
        }
        .header {
            background-color: #4F46E5;
            color: white;
            padding: 20px;
            text-align: center;
            border-radius: 5px 5px 0 0;
        }
        .content {
            background-color: #f9f9f9;
            padding: 30px;
            border-radius: 0 0 5px 5px;
        }
        .code {
            display: inline-block;
            background-color: #4F46E5;
            color: white !important;
            padding: 12px 30px;
            font-size: 28px;
            letter-spacing: 8px;
            border-radius: 5px;
            margin: 20px 0;
        }
        .footer {
            margin-top: 30px;
            font-size: 12px;
            color: #666;
            text-align: center;
        }
    </style>
</head>
<body>
    <div class="header">
        <h1>{{.Title}}</h1>
    </div>
    <div class="content">
        <h2>{{.Heading}}</h2>
        <p>{{.Intro}}</p>

        <div class="code" style="color: white !important;">{{.Code}}</div>

        <p style="margin-top: 30px;">{{.Outro}}</p>
    </div>
    <div class="footer">
        <p>This code will expire in 10 minutes.</p>
        <p>&copy; 2026 TalentSift. All rights reserved.</p>
    </div>
</body>
</html>
`

	t, err := template.New("code").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	data := struct {
		Title   string
		Heading string
		Intro   string
		Outro   string
		Code    string
	}{
		Title:   kind.Title,
		Heading: kind.Heading,
		Intro:   kind.Intro,
		Outro:   kind.Outro,
		Code:    code,
	}

	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return buf.String(), nil
}

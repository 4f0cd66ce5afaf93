package utils

import (
	"fmt"
	"lms/config"
	"lms/database"
	"lms/models"
	"log"
	"net/smtp"
	"strings"
)

// SendEmail sends an HTML email through the configured SMTP account.
func SendEmail(to []string, subject string, htmlBody string) error {
	smtpHost := "smtp.gmail.com"
	smtpPort := "587"

	from := config.AppConfig.EmailSender
	password := config.AppConfig.Password

	// MIME basics
	msg := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n"
	msg += fmt.Sprintf("From: LearnSphere <%s>\r\n", from)
	msg += fmt.Sprintf("To: %s\r\n", strings.Join(to, ","))
	msg += fmt.Sprintf("Subject: %s\r\n\r\n", subject)
	msg += htmlBody

	auth := smtp.PlainAuth("", from, password, smtpHost)

	err := smtp.SendMail(smtpHost+":"+smtpPort, auth, from, to, []byte(msg))
	if err != nil {
		log.Printf("[EMAIL] failed to send %q to %v: %v", subject, to, err)
		return err
	}
	return nil
}

func getEmailTemplate(title string, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; box-shadow: 0 4px 15px rgba(0,0,0,0.05); }
			.header { background-color: #1B2A4A; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; letter-spacing: 1px; }
			.content { padding: 40px 30px; color: #1B2A4A; line-height: 1.6; }
			.content h2 { color: #1B2A4A; margin-top: 0; }
			.footer { background-color: #F6F6F6; padding: 20px; text-align: center; font-size: 12px; color: #666666; border-top: 1px solid #E0E0E0; }
			.cert-box { background: #E8F0FE; padding: 15px; border-radius: 4px; border-left: 4px solid #4C8BF5; margin: 20px 0; font-family: monospace; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>LEARNSPHERE</h1>
			</div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">
				&copy; 2026 LearnSphere. All rights reserved.
			</div>
		</div>
	</body>
	</html>`, title, bodyContent)
}

// CertificateMailer notifies learners by email when their certificate is
// issued. Satisfies the completion gate's Notifier interface.
type CertificateMailer struct{}

func (CertificateMailer) CertificateIssued(userID, courseID uint, certificateNumber string) {
	db := database.Database.Db

	var user models.User
	if err := db.Where("id = ? AND is_deleted = false", userID).First(&user).Error; err != nil {
		log.Printf("[EMAIL] certificate mail skipped, user %d not found: %v", userID, err)
		return
	}

	var course models.Course
	if err := db.Where("id = ?", courseID).First(&course).Error; err != nil {
		log.Printf("[EMAIL] certificate mail skipped, course %d not found: %v", courseID, err)
		return
	}

	body := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>Congratulations! You have completed <strong>%s</strong> and earned your certificate.</p>
		<div class="cert-box">Certificate No: %s</div>
		<p>You can view and download it from your certificates page.</p>`,
		user.Name, course.Title, certificateNumber)

	if err := SendEmail([]string{user.Email}, "Your course certificate is ready", getEmailTemplate("Certificate Earned", body)); err != nil {
		return
	}
	log.Printf("[EMAIL] certificate %s mailed to user %d", certificateNumber, userID)
}

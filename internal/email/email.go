package email

import (
	"fmt"
	"log/slog"
	"mime/quotedprintable"
	"net/smtp"
	"strings"

	"github.com/Kuronil/mephuongthitheo-sub000/internal/config"
	"github.com/Kuronil/mephuongthitheo-sub000/pkg/logkey"
)

// Sender delivers transactional mail over SMTP. Failures are the caller's
// to log; nothing here should ever abort a request.
type Sender struct {
	cfg  config.SMTP
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSender(cfg config.SMTP) *Sender {
	return &Sender{cfg: cfg, send: smtp.SendMail}
}

// message builds a multipart/alternative body so clients without HTML still
// get the plain text.
func (s *Sender) message(to, subject, plain, html string) []byte {
	const boundary = "mph-mail-boundary"
	var b strings.Builder

	b.WriteString("From: " + s.cfg.From + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: multipart/alternative; boundary=" + boundary + "\r\n\r\n")

	for _, part := range []struct{ ctype, body string }{
		{"text/plain; charset=UTF-8", plain},
		{"text/html; charset=UTF-8", html},
	} {
		b.WriteString("--" + boundary + "\r\n")
		b.WriteString("Content-Type: " + part.ctype + "\r\n")
		b.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")
		w := quotedprintable.NewWriter(&b)
		w.Write([]byte(part.body))
		w.Close()
		b.WriteString("\r\n")
	}
	b.WriteString("--" + boundary + "--\r\n")
	return []byte(b.String())
}

func (s *Sender) deliver(to, subject, plain, html string) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Pass, s.cfg.Host)
	if err := s.send(addr, auth, s.cfg.From, []string{to}, s.message(to, subject, plain, html)); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}
	return nil
}

// SendAsync fires the send in a goroutine and only logs failures, matching
// the degrade-silently policy for upstream integrations.
func (s *Sender) sendAsync(to, subject, plain, html string) {
	go func() {
		if err := s.deliver(to, subject, plain, html); err != nil {
			slog.Error("email send failed", slog.String(logkey.ERROR, err.Error()))
		}
	}()
}

func (s *Sender) SendVerification(to, name, verifyURL string) {
	plain := fmt.Sprintf("Chào %s,\n\nVui lòng xác thực email của bạn: %s\n\nMẹ Phương Thịt Heo", name, verifyURL)
	html := fmt.Sprintf(`<p>Chào <b>%s</b>,</p><p>Vui lòng xác thực email của bạn bằng cách bấm vào <a href="%s">liên kết này</a>.</p><p>Mẹ Phương Thịt Heo</p>`, name, verifyURL)
	s.sendAsync(to, "Xác thực email của bạn", plain, html)
}

func (s *Sender) SendWelcome(to, name string) {
	plain := fmt.Sprintf("Chào %s,\n\nCảm ơn bạn đã đăng ký tài khoản tại Mẹ Phương Thịt Heo!", name)
	html := fmt.Sprintf(`<p>Chào <b>%s</b>,</p><p>Cảm ơn bạn đã đăng ký tài khoản tại Mẹ Phương Thịt Heo!</p>`, name)
	s.sendAsync(to, "Chào mừng bạn đến với Mẹ Phương Thịt Heo", plain, html)
}

func (s *Sender) SendPasswordReset(to, name, resetURL string) {
	plain := fmt.Sprintf("Chào %s,\n\nĐặt lại mật khẩu của bạn tại: %s\nLiên kết có hiệu lực trong 1 giờ.", name, resetURL)
	html := fmt.Sprintf(`<p>Chào <b>%s</b>,</p><p>Bấm vào <a href="%s">đây</a> để đặt lại mật khẩu. Liên kết có hiệu lực trong 1 giờ.</p>`, name, resetURL)
	s.sendAsync(to, "Đặt lại mật khẩu", plain, html)
}

func (s *Sender) SendOrderConfirmation(to, name, orderNumber string, total int64) {
	plain := fmt.Sprintf("Chào %s,\n\nĐơn hàng %s của bạn (tổng %dđ) đã được tiếp nhận.", name, orderNumber, total)
	html := fmt.Sprintf(`<p>Chào <b>%s</b>,</p><p>Đơn hàng <b>%s</b> của bạn (tổng <b>%dđ</b>) đã được tiếp nhận.</p>`, name, orderNumber, total)
	s.sendAsync(to, fmt.Sprintf("Xác nhận đơn hàng %s", orderNumber), plain, html)
}

func (s *Sender) SendStatusUpdate(to, name, orderNumber, status string) {
	plain := fmt.Sprintf("Chào %s,\n\nĐơn hàng %s của bạn vừa chuyển sang trạng thái: %s.", name, orderNumber, status)
	html := fmt.Sprintf(`<p>Chào <b>%s</b>,</p><p>Đơn hàng <b>%s</b> của bạn vừa chuyển sang trạng thái: <b>%s</b>.</p>`, name, orderNumber, status)
	s.sendAsync(to, fmt.Sprintf("Cập nhật đơn hàng %s", orderNumber), plain, html)
}

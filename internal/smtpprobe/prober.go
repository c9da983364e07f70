// Package smtpprobe implements a minimal SMTP client that asks a domain's
// mail exchangers whether they would accept mail for a recipient, without
// ever sending a message. The conversation stops right after RCPT TO.
package smtpprobe

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultTimeout applies to connect and to every individual read and
	// write on the socket.
	DefaultTimeout = 10 * time.Second

	// DefaultHELODomain identifies the probe to the remote server.
	DefaultHELODomain = "validator.local"

	// DefaultMailFrom is the envelope sender used for the MAIL FROM step.
	DefaultMailFrom = "validator@validator.local"

	smtpPort = "25"
)

// Dialer abstracts TCP establishment so tests can substitute scripted
// servers. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Outcome reports the result of probing one address.
//
// Code and Message are parsed from the RCPT TO reply when the conversation
// gets that far; Message otherwise carries the failure detail of whichever
// step broke the conversation.
type Outcome struct {
	ConnectionSuccess bool
	RecipientAccepted bool
	Code              int
	Message           string
	CatchAll          bool
	CatchAllTested    bool
}

// Options configures a Prober. Zero values fall back to the defaults above.
type Options struct {
	Dialer         Dialer
	Timeout        time.Duration
	HELODomain     string
	MailFrom       string
	DetectCatchAll bool
}

// Prober runs recipient verification handshakes against mail exchangers.
type Prober struct {
	dialer         Dialer
	timeout        time.Duration
	heloDomain     string
	mailFrom       string
	detectCatchAll bool
	randomLocal    func() string
}

// New creates a Prober from opts.
func New(opts Options) *Prober {
	p := &Prober{
		dialer:         opts.Dialer,
		timeout:        opts.Timeout,
		heloDomain:     opts.HELODomain,
		mailFrom:       opts.MailFrom,
		detectCatchAll: opts.DetectCatchAll,
	}
	if p.timeout <= 0 {
		p.timeout = DefaultTimeout
	}
	if p.dialer == nil {
		p.dialer = &net.Dialer{Timeout: p.timeout}
	}
	if p.heloDomain == "" {
		p.heloDomain = DefaultHELODomain
	}
	if p.mailFrom == "" {
		p.mailFrom = DefaultMailFrom
	}
	p.randomLocal = func() string {
		return "test-" + uuid.NewString()[:8]
	}
	return p
}

// Probe connects to the given mail exchangers in order and runs the
// HELO / MAIL FROM / RCPT TO conversation for email. The next host is tried
// only when the TCP connection itself fails; a server that answers but
// rejects a step settles the outcome. Probe never returns an error; every
// failure mode is an answer about deliverability.
func (p *Prober) Probe(ctx context.Context, email string, mxHosts []string) Outcome {
	for _, host := range mxHosts {
		conn, err := p.dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, smtpPort))
		if err != nil {
			continue
		}
		return p.converse(conn, email)
	}
	return Outcome{Message: "all MX connections failed"}
}

// converse runs the SMTP conversation on an established connection. QUIT
// and Close run on every exit path, whichever step fails.
func (p *Prober) converse(conn net.Conn, email string) (outcome Outcome) {
	defer conn.Close()
	defer func() {
		// Best-effort goodbye; the socket may already be dead.
		_ = p.writeLine(conn, "QUIT")
	}()

	outcome.ConnectionSuccess = true
	r := bufio.NewReader(conn)

	code, msg, err := p.readReply(conn, r)
	if err != nil {
		outcome.Message = "reading greeting: " + err.Error()
		return outcome
	}
	if code != 220 {
		outcome.Message = fmt.Sprintf("unexpected greeting %d %s", code, msg)
		return outcome
	}

	if code, msg, err = p.command(conn, r, "HELO "+p.heloDomain); err != nil {
		outcome.Message = "HELO: " + err.Error()
		return outcome
	} else if code != 250 {
		outcome.Message = fmt.Sprintf("HELO rejected: %d %s", code, msg)
		return outcome
	}

	if code, msg, err = p.command(conn, r, "MAIL FROM:<"+p.mailFrom+">"); err != nil {
		outcome.Message = "MAIL FROM: " + err.Error()
		return outcome
	} else if code != 250 {
		outcome.Message = fmt.Sprintf("MAIL FROM rejected: %d %s", code, msg)
		return outcome
	}

	code, msg, err = p.command(conn, r, "RCPT TO:<"+email+">")
	if err != nil {
		outcome.Message = "RCPT TO: " + err.Error()
		return outcome
	}
	outcome.Code = code
	outcome.Message = msg
	outcome.RecipientAccepted = code == 250

	if outcome.RecipientAccepted && p.detectCatchAll {
		outcome.CatchAllTested = true
		domain := email[strings.LastIndex(email, "@")+1:]
		probe := p.randomLocal() + "@" + domain
		if code, _, err := p.command(conn, r, "RCPT TO:<"+probe+">"); err == nil && code == 250 {
			// The server takes anything, so the acceptance above is not
			// a signal that the mailbox exists.
			outcome.CatchAll = true
		}
	}

	return outcome
}

// command writes one SMTP command and reads its reply.
func (p *Prober) command(conn net.Conn, r *bufio.Reader, cmd string) (int, string, error) {
	if err := p.writeLine(conn, cmd); err != nil {
		return 0, "", err
	}
	return p.readReply(conn, r)
}

func (p *Prober) writeLine(conn net.Conn, line string) error {
	if err := conn.SetWriteDeadline(time.Now().Add(p.timeout)); err != nil {
		return err
	}
	_, err := conn.Write([]byte(line + "\r\n"))
	return err
}

// readReply parses an SMTP reply, following "250-" continuation lines until
// the final "250 " line. The returned message is the text of the final line.
func (p *Prober) readReply(conn net.Conn, r *bufio.Reader) (int, string, error) {
	for {
		if err := conn.SetReadDeadline(time.Now().Add(p.timeout)); err != nil {
			return 0, "", err
		}
		line, err := r.ReadString('\n')
		if err != nil {
			return 0, "", err
		}
		line = strings.TrimRight(line, "\r\n")
		if len(line) < 3 {
			return 0, "", fmt.Errorf("malformed reply %q", line)
		}
		code, err := strconv.Atoi(line[:3])
		if err != nil {
			return 0, "", fmt.Errorf("malformed reply %q", line)
		}
		if len(line) > 3 && line[3] == '-' {
			continue
		}
		msg := ""
		if len(line) > 4 {
			msg = line[4:]
		}
		return code, msg, nil
	}
}

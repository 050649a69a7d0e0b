// Command smtpclient is a manual test client: it delivers one fixed
// message over SMTP, optionally pausing between body lines to exercise
// slow transfers and concurrent deliveries.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"os"
	"strings"
	"time"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:2525", "SMTP server address")
	from := flag.String("from", "alice@example.com", "Envelope sender")
	to := flag.String("to", "bob@example.com", "Envelope recipient")
	delay := flag.Duration("delay", 0, "Pause between body lines")
	flag.Parse()

	if err := run(*addr, *from, *to, *delay); err != nil {
		fmt.Fprintf(os.Stderr, "smtpclient: %v\n", err)
		os.Exit(1)
	}
}

func run(addr, from, to string, delay time.Duration) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", addr, err)
	}
	defer conn.Close()

	reader := bufio.NewReader(conn)

	// 220 greeting
	if err := readReply(reader); err != nil {
		return err
	}

	commands := []string{
		"HELO client.test",
		fmt.Sprintf("MAIL FROM:<%s>", from),
		fmt.Sprintf("RCPT TO:<%s>", to),
		"DATA",
	}
	for _, cmd := range commands {
		if err := exchange(conn, reader, cmd); err != nil {
			return err
		}
	}

	body := []string{
		"Subject: Slow Test",
		"Hello,",
		"This is a slow email.",
		"Bye.",
	}
	for _, line := range body {
		// Transparency rule: escape any leading dot.
		if strings.HasPrefix(line, ".") {
			line = "." + line
		}
		if _, err := fmt.Fprintf(conn, "%s\r\n", line); err != nil {
			return fmt.Errorf("sending body: %w", err)
		}
		time.Sleep(delay)
	}

	if err := exchange(conn, reader, "."); err != nil {
		return err
	}

	return exchange(conn, reader, "QUIT")
}

// exchange sends one command line and prints the server's reply.
func exchange(conn net.Conn, reader *bufio.Reader, cmd string) error {
	if _, err := fmt.Fprintf(conn, "%s\r\n", cmd); err != nil {
		return fmt.Errorf("sending %q: %w", cmd, err)
	}
	return readReply(reader)
}

func readReply(reader *bufio.Reader) error {
	line, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading reply: %w", err)
	}
	fmt.Println(strings.TrimRight(line, "\r\n"))
	return nil
}

// chat-cli is a small terminal client for the streaming chat endpoint.
// Replies render incrementally; typing while a reply streams pauses the
// live output for a short cooldown, the way the web composer pauses
// auto-scroll, and held text flushes when the cooldown lapses or the
// reply ends.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"mentorhub/pkg/chat"
	"mentorhub/pkg/models"
	"mentorhub/pkg/relay"
)

type cli struct {
	client *http.Client
	server string
	apiKey string
	token  string

	conv   *chat.Conversation
	scroll *chat.AutoScroll
	// lines carries stdin lines; input that arrives while a reply is
	// streaming is queued for the next prompt.
	lines  chan string
	queued []string
}

func main() {
	server := flag.String("server", "http://localhost:8080", "server base URL")
	apiKey := flag.String("api-key", os.Getenv("MENTORHUB_API_KEY"), "frontend API key")
	token := flag.String("token", os.Getenv("MENTORHUB_SESSION_TOKEN"), "session token")
	flag.Parse()

	if *apiKey == "" {
		fmt.Fprintln(os.Stderr, "an API key is required (-api-key or MENTORHUB_API_KEY)")
		os.Exit(1)
	}

	c := &cli{
		client: &http.Client{},
		server: strings.TrimRight(*server, "/"),
		apiKey: *apiKey,
		token:  *token,
		conv:   chat.NewConversation(""),
		scroll: chat.NewAutoScroll(0),
		lines:  make(chan string),
	}
	go func() {
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			c.lines <- sc.Text()
		}
		close(c.lines)
	}()

	fmt.Println("mentorhub chat - type a message, ctrl-d to quit")
	for {
		fmt.Print("> ")
		line, ok := c.nextLine()
		if !ok {
			fmt.Println()
			return
		}
		accepted, err := c.conv.Submit(line)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		if !accepted {
			continue
		}
		if err := c.streamReply(); err != nil {
			fmt.Fprintf(os.Stderr, "\nerror: %v\n", err)
		}
	}
}

func (c *cli) nextLine() (string, bool) {
	if len(c.queued) > 0 {
		line := c.queued[0]
		c.queued = c.queued[1:]
		fmt.Println(line)
		return line, true
	}
	line, ok := <-c.lines
	return line, ok
}

func (c *cli) streamReply() error {
	payload, err := json.Marshal(map[string][]models.Message{"messages": c.conv.Visible()})
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, c.server+"/v1/chat/stream", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)
	if c.token != "" {
		req.Header.Set("X-Session-Token", c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.conv.Fail()
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusSeeOther:
		c.conv.Fail()
		return fmt.Errorf("access denied, redirected to %s", resp.Header.Get("Location"))
	default:
		c.conv.Fail()
		return fmt.Errorf("server returned %s", resp.Status)
	}

	var held strings.Builder
	flush := func() {
		if held.Len() > 0 {
			fmt.Print(held.String())
			held.Reset()
		}
	}

	err = relay.ReadStream(resp.Body, func(ev relay.Event) error {
		// input during streaming pauses live output
		select {
		case line, ok := <-c.lines:
			if ok {
				c.queued = append(c.queued, line)
				c.scroll.UserScrolled()
			}
		default:
		}

		switch {
		case ev.Done:
			return nil
		case ev.Error != "":
			c.conv.Fail()
			return fmt.Errorf("%s", ev.Error)
		default:
			c.conv.Feed(ev.Content)
			if c.scroll.ShouldFollow() {
				flush()
				fmt.Print(ev.Content)
			} else {
				held.WriteString(ev.Content)
			}
			return nil
		}
	})
	flush()
	fmt.Println()
	if err != nil {
		if c.conv.State() != chat.StateFailed {
			c.conv.Fail()
		}
		return err
	}
	c.conv.Complete()
	return nil
}

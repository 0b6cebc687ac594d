package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

var (
	baseURL   = flag.String("url", "http://localhost:8080", "server base URL")
	userCount = flag.Int("users", 5, "concurrent students; keep within the login rate limit burst")
	msgCount  = flag.Int("messages", 20, "messages per student")
)

type challenge struct {
	ID        string `json:"captcha_id"`
	Challenge struct {
		A  int    `json:"num1"`
		B  int    `json:"num2"`
		Op string `json:"operation"`
	} `json:"challenge"`
}

type loginResult struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	AccessToken string `json:"access_token"`
}

type widget struct {
	Messages []json.RawMessage `json:"messages"`
}

var sent atomic.Int64

func main() {
	flag.Parse()
	log.Printf("🔥 STARTING STRESS TEST: %d students, %d messages each...", *userCount, *msgCount)
	start := time.Now()

	var wg sync.WaitGroup
	tokens := make(chan string, *userCount)
	for i := 0; i < *userCount; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			token := authenticate(fmt.Sprintf("student%d@loadtest.local", n), fmt.Sprintf("Student %d", n))
			if token != "" {
				tokens <- token
			}
		}(i)
	}
	wg.Wait()
	close(tokens)

	var all []string
	for t := range tokens {
		all = append(all, t)
	}
	if len(all) == 0 {
		log.Fatal("❌ no student could log in")
	}
	before := threadLen(all[0])

	for _, token := range all {
		wg.Add(1)
		go func(token string) {
			defer wg.Done()
			spamChat(token)
		}(token)
	}
	wg.Wait()

	after := threadLen(all[0])
	log.Printf("✅ LOAD TEST COMPLETE in %s: sent %d, thread grew by %d", time.Since(start).Round(time.Millisecond), sent.Load(), after-before)
	if int64(after-before) != sent.Load() {
		log.Fatalf("❌ lost appends: expected %d new messages, got %d", sent.Load(), after-before)
	}
}

// authenticate registers (ignoring conflicts), solves the captcha and logs in
func authenticate(email, name string) string {
	postJSON("/api/register", "", map[string]string{"email": email, "password": "password123", "fullName": name}, nil)

	// a wrong answer re-rolls the question, so retry a few times
	for attempt := 0; attempt < 3; attempt++ {
		var c challenge
		if _, err := postJSON("/api/captcha", "", nil, &c); err != nil {
			log.Printf("❌ Captcha Failed [%s]: %v", email, err)
			return ""
		}

		var res loginResult
		status, err := postJSON("/api/login", "", map[string]string{
			"email":          email,
			"password":       "password123",
			"role":           "student",
			"captcha_id":     c.ID,
			"captcha_answer": solve(c),
		}, &res)
		if err != nil {
			log.Printf("❌ Login Failed [%s]: %v", email, err)
			return ""
		}
		if status == http.StatusOK && res.Success {
			return res.AccessToken
		}
		log.Printf("⚠️ Login rejected [%s]: status %d %s", email, status, res.Message)
		time.Sleep(time.Second)
	}
	return ""
}

func solve(c challenge) string {
	switch c.Challenge.Op {
	case "+":
		return strconv.Itoa(c.Challenge.A + c.Challenge.B)
	case "-":
		return strconv.Itoa(c.Challenge.A - c.Challenge.B)
	}
	return strconv.Itoa(c.Challenge.A * c.Challenge.B)
}

func spamChat(token string) {
	for i := 0; i < *msgCount; i++ {
		status, err := postJSON("/api/chat/messages", token, map[string]string{"text": fmt.Sprintf("LoadTest Msg %d", i)}, nil)
		if err != nil || status != http.StatusCreated {
			log.Printf("❌ Send Fail: status %d err %v", status, err)
			return
		}
		sent.Add(1)
		// Small sleep to simulate real typing
		time.Sleep(10 * time.Millisecond)
	}
}

func threadLen(token string) int {
	req, _ := http.NewRequest(http.MethodGet, *baseURL+"/api/chat", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("❌ Fetch thread failed: %v", err)
	}
	defer resp.Body.Close()
	var w widget
	json.NewDecoder(resp.Body).Decode(&w)
	return len(w.Messages)
}

func postJSON(endpoint, token string, data, out any) (int, error) {
	var body bytes.Buffer
	if data != nil {
		json.NewEncoder(&body).Encode(data)
	}
	req, err := http.NewRequest(http.MethodPost, *baseURL+endpoint, &body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if out != nil {
		json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode, nil
}

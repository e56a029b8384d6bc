// Командная админ-консоль: вход по email/паролю, просмотр и удаление заявок,
// скачивание вложений, правка контента сайта. Работает через публичный
// админ-API сервиса api.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/pixelcraft/internal/adminauth"
	"github.com/pixelcraft/internal/adminclient"
	"github.com/pixelcraft/internal/adminsession"
	"github.com/pixelcraft/internal/clientcache"
	"github.com/pixelcraft/internal/logger"
	"github.com/pixelcraft/internal/model"
)

const (
	requestTimeout = 30 * time.Second
	ordersCacheKey = "orders"
)

type console struct {
	in       *bufio.Reader
	client   *adminclient.Client
	sessions *adminsession.Store
	cache    *clientcache.Cache
	orch     *adminauth.Orchestrator
}

func main() {
	logger.SetPrefix("admincli")
	server := flag.String("server", "http://localhost:8080", "base URL of the api service")
	sessionFile := flag.String("session", defaultSessionFile(), "path to the session file")
	cacheTTL := flag.Duration("cache-ttl", 10*time.Minute, "TTL of locally cached server data")
	flag.Parse()

	client := adminclient.New(*server, requestTimeout)
	sessions := adminsession.NewStore(adminsession.NewFileStorage(*sessionFile))
	cache := clientcache.New(*cacheTTL)

	c := &console{
		in:       bufio.NewReader(os.Stdin),
		client:   client,
		sessions: sessions,
		cache:    cache,
		orch:     adminauth.NewOrchestrator(client, sessions, cache),
	}

	// Показываем причину, по которой закончилась прошлая сессия (истечение,
	// отозванный токен), один раз.
	if reason := sessions.LogoutReason(); reason != "" {
		fmt.Println(reason)
		sessions.ClearLogoutReason()
	}
	unsubscribe := sessions.Subscribe(func() {
		if sessions.Get() == nil {
			if reason := sessions.LogoutReason(); reason != "" {
				fmt.Println(reason)
				sessions.ClearLogoutReason()
			}
		}
	})
	defer unsubscribe()

	for {
		if sessions.Get() == nil {
			if !c.loginFlow() {
				return
			}
		}
		if !c.repl() {
			return
		}
	}
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".admincli-session.json"
	}
	return filepath.Join(home, ".pixelcraft", "session.json")
}

// loginFlow доводит пользователя до рабочей сессии. false — пользователь
// решил выйти.
func (c *console) loginFlow() bool {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	exists := c.orch.AdminExists(ctx)
	cancel()
	if !exists {
		fmt.Println("No admin account exists yet.")
		if c.confirm("Create the default admin account? [y/N]: ") {
			if !c.bootstrap() {
				return false
			}
		}
	}

	for {
		email := c.prompt("Email (empty to quit): ")
		if email == "" {
			return false
		}
		password := c.promptPassword("Password: ")

		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		err := c.orch.Login(ctx, email, password)
		cancel()
		if err == nil {
			fmt.Printf("Logged in as %s\n", email)
			return true
		}

		ce := adminauth.Classify(err)
		fmt.Println(ce.Message)
		if ce.CanCreateDefaultAdmin && c.confirm("Create the default admin account? [y/N]: ") {
			if !c.bootstrap() {
				return false
			}
		}
	}
}

func (c *console) bootstrap() bool {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	created, err := c.orch.CreateDefaultAdmin(ctx)
	cancel()
	if err != nil {
		fmt.Println(adminauth.Classify(err).Message)
		return true
	}
	if !created {
		fmt.Println("An admin account already exists, log in with its credentials.")
		return true
	}
	fmt.Println("Default admin created.")

	// Если seed-учётка известна консоли (те же переменные окружения, что и у
	// сервера), сразу входим под ней.
	email, password := os.Getenv("ADMIN_SEED_EMAIL"), os.Getenv("ADMIN_SEED_PASSWORD")
	if email == "" || password == "" {
		fmt.Println("Log in with the seeded credentials (see server configuration).")
		return true
	}
	ctx, cancel = context.WithTimeout(context.Background(), requestTimeout)
	err = c.orch.Login(ctx, email, password)
	cancel()
	if err != nil {
		fmt.Println(adminauth.Classify(err).Message)
		return true
	}
	fmt.Printf("Logged in as %s\n", email)
	return true
}

// repl крутит командный цикл, пока есть сессия. false — команда quit.
func (c *console) repl() bool {
	fmt.Println(`Commands: orders, order <id>, delete <id>, download <id> [dir], content <section>, setcontent <section>, refresh, whoami, logout, quit`)
	for {
		if c.sessions.Get() == nil {
			// Сессию сбросили (истечение или отозванный токен) — на логин.
			return true
		}
		line := c.prompt("> ")
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case "quit", "exit":
			return false
		case "help":
			fmt.Println(`Commands: orders, order <id>, delete <id>, download <id> [dir], content <section>, setcontent <section>, refresh, whoami, logout, quit`)
		case "whoami":
			fmt.Println(c.sessions.Username())
		case "refresh":
			c.cache.Clear()
			fmt.Println("Local cache cleared.")
		case "logout":
			ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
			c.orch.Logout(ctx)
			cancel()
			fmt.Println("Logged out.")
			return true
		case "orders":
			c.listOrders()
		case "order":
			c.orderDetail(args)
		case "delete":
			c.deleteOrder(args)
		case "download":
			c.downloadFile(args)
		case "content":
			c.showContent(args)
		case "setcontent":
			c.editContent(args)
		default:
			fmt.Printf("Unknown command %q, try help\n", cmd)
		}
	}
}

func (c *console) listOrders() {
	if cached, ok := c.cache.Get(ordersCacheKey); ok {
		printOrders(cached.([]model.Order))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	orders, err := c.client.GetAllOrders(ctx, c.sessions.Token())
	if err != nil {
		c.reportError(err)
		return
	}
	c.cache.Set(ordersCacheKey, orders)
	printOrders(orders)
}

func printOrders(orders []model.Order) {
	if len(orders) == 0 {
		fmt.Println("No orders yet.")
		return
	}
	for _, o := range orders {
		attach := ""
		if o.HasAttachment() {
			attach = " [file]"
		}
		fmt.Printf("#%d  %s  %s  %s%s\n", o.ID, o.CreatedAt.Format("2006-01-02 15:04"), o.Service, o.FullName, attach)
	}
}

func (c *console) orderDetail(args []string) {
	id, ok := parseID(args)
	if !ok {
		fmt.Println("Usage: order <id>")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	o, err := c.client.GetOrderDetail(ctx, c.sessions.Token(), id)
	if err != nil {
		c.reportError(err)
		return
	}
	fmt.Printf("Order #%d (%s)\n", o.ID, o.CreatedAt.Format(time.RFC1123))
	fmt.Printf("  Service:  %s\n", o.Service)
	fmt.Printf("  Name:     %s\n", o.FullName)
	fmt.Printf("  Email:    %s\n", o.Email)
	if o.Whatsapp != "" {
		fmt.Printf("  WhatsApp: %s\n", o.Whatsapp)
	}
	if o.Budget != "" {
		fmt.Printf("  Budget:   %s\n", o.Budget)
	}
	if o.DeliveryTime != "" {
		fmt.Printf("  Delivery: %s\n", o.DeliveryTime)
	}
	fmt.Printf("  Description: %s\n", o.Description)
	if o.HasAttachment() {
		fmt.Printf("  Attachment: %s (%d bytes)\n", o.FileName, o.FileSize)
	}
}

func (c *console) deleteOrder(args []string) {
	id, ok := parseID(args)
	if !ok {
		fmt.Println("Usage: delete <id>")
		return
	}
	if !c.confirm(fmt.Sprintf("Delete order #%d? [y/N]: ", id)) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	if err := c.client.DeleteOrder(ctx, c.sessions.Token(), id); err != nil {
		c.reportError(err)
		return
	}
	c.cache.Delete(ordersCacheKey)
	fmt.Printf("Order #%d deleted.\n", id)
}

func (c *console) downloadFile(args []string) {
	id, ok := parseID(args)
	if !ok {
		fmt.Println("Usage: download <id> [dir]")
		return
	}
	destDir := "."
	if len(args) > 1 {
		destDir = args[1]
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	path, err := c.client.DownloadFile(ctx, c.sessions.Token(), id, destDir)
	if err != nil {
		c.reportError(err)
		return
	}
	fmt.Printf("Saved to %s\n", path)
}

func (c *console) showContent(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: content <section>   (contact, social, seo)")
		return
	}
	section := args[0]
	cacheKey := "content:" + section
	if cached, ok := c.cache.Get(cacheKey); ok {
		fmt.Println(cached.(string))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	raw, err := c.client.GetContent(ctx, section)
	if err != nil {
		c.reportError(err)
		return
	}
	pretty := prettyJSON(raw)
	c.cache.Set(cacheKey, pretty)
	fmt.Println(pretty)
}

func (c *console) editContent(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: setcontent <section>   (contact, social, seo)")
		return
	}
	section := args[0]
	payload := c.prompt("New JSON value: ")
	if payload == "" {
		return
	}
	if !json.Valid([]byte(payload)) {
		fmt.Println("Not valid JSON, nothing sent.")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	if err := c.client.SetContent(ctx, c.sessions.Token(), section, json.RawMessage(payload)); err != nil {
		c.reportError(err)
		return
	}
	c.cache.Delete("content:" + section)
	fmt.Println("Content updated.")
}

// reportError показывает классифицированную ошибку и применяет политику
// недействительного токена: отвергнутый токен сбрасывает сессию,
// остальные ошибки её не трогают.
func (c *console) reportError(err error) {
	fmt.Println(adminauth.Classify(err).Message)
	c.orch.NoteBackendError(err)
}

func (c *console) prompt(label string) string {
	fmt.Print(label)
	line, err := c.in.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(line)
}

func (c *console) promptPassword(label string) string {
	fmt.Print(label)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Println()
		if err == nil {
			return string(raw)
		}
	}
	line, err := c.in.ReadString('\n')
	if err != nil {
		return ""
	}
	return strings.TrimSpace(line)
}

func (c *console) confirm(label string) bool {
	answer := strings.ToLower(c.prompt(label))
	return answer == "y" || answer == "yes"
}

func parseID(args []string) (int64, bool) {
	if len(args) < 1 {
		return 0, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func prettyJSON(raw json.RawMessage) string {
	var buf map[string]any
	if err := json.Unmarshal(raw, &buf); err != nil {
		return string(raw)
	}
	out, err := json.MarshalIndent(buf, "", "  ")
	if err != nil {
		return string(raw)
	}
	return string(out)
}

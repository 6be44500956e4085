package moderation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"tg-guard-bot/internal/domain"
	"tg-guard-bot/internal/usecase/cleanup"
	"tg-guard-bot/internal/usecase/roster"
)

type fakeStore struct {
	mu          sync.Mutex
	initial     map[domain.IdentityKey]int
	persisted   []map[domain.IdentityKey]int
	failPersist bool
}

func (s *fakeStore) Load(ctx context.Context) (map[domain.IdentityKey]int, error) {
	counts := make(map[domain.IdentityKey]int, len(s.initial))
	for key, count := range s.initial {
		counts[key] = count
	}
	return counts, nil
}

func (s *fakeStore) Persist(ctx context.Context, snapshot map[domain.IdentityKey]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPersist {
		return errors.New("диск недоступен")
	}
	s.persisted = append(s.persisted, snapshot)
	return nil
}

func (s *fakeStore) Location() string { return "fake://ledger" }

func (s *fakeStore) persistCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.persisted)
}

type fakeChat struct {
	mu         sync.Mutex
	sent       []string
	deleted    []string
	banned     []string
	nextMsgID  int
	idsPerSend int
	sendErr    error
	deleteErr  error
	banErr     error
	status     domain.MemberStatus
	statusErr  error
	admins     []int64
	adminsErr  error
}

func (c *fakeChat) SendMessage(ctx context.Context, chatID int64, text string) ([]int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return nil, c.sendErr
	}
	c.sent = append(c.sent, text)
	parts := c.idsPerSend
	if parts <= 0 {
		parts = 1
	}
	ids := make([]int, 0, parts)
	for i := 0; i < parts; i++ {
		c.nextMsgID++
		ids = append(ids, c.nextMsgID)
	}
	return ids, nil
}

func (c *fakeChat) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deleteErr != nil {
		return c.deleteErr
	}
	c.deleted = append(c.deleted, fmt.Sprintf("%d:%d", chatID, messageID))
	return nil
}

func (c *fakeChat) BanMember(ctx context.Context, chatID, userID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.banErr != nil {
		return c.banErr
	}
	c.banned = append(c.banned, fmt.Sprintf("%d:%d", chatID, userID))
	return nil
}

func (c *fakeChat) GetMembership(ctx context.Context, chatID, userID int64) (domain.MemberStatus, error) {
	if c.statusErr != nil {
		return "", c.statusErr
	}
	if c.status == "" {
		return domain.MemberStatusMember, nil
	}
	return c.status, nil
}

func (c *fakeChat) ListAdministrators(ctx context.Context, chatID int64) ([]int64, error) {
	if c.adminsErr != nil {
		return nil, c.adminsErr
	}
	return c.admins, nil
}

func (c *fakeChat) sentMessages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.sent...)
}

func (c *fakeChat) deletedMessages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.deleted...)
}

func (c *fakeChat) bannedMembers() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.banned...)
}

func newTestService(chat *fakeChat, store *fakeStore) (*Service, *roster.Directory) {
	logger := zerolog.Nop()
	directory := roster.NewDirectory()
	ledger := NewLedger(store, logger)
	_ = ledger.Load(context.Background())
	scheduler := cleanup.NewScheduler(chat, logger)
	service := NewService(chat, ledger, directory, scheduler, nil, 3, time.Hour, logger)
	return service, directory
}

func groupMessage(chatID, userID int64, messageID int, text string) domain.InboundMessage {
	return domain.InboundMessage{
		ChatID:    chatID,
		MessageID: messageID,
		Sender:    domain.Member{ID: userID, FirstName: "Juan", LastName: "Pérez"},
		Text:      text,
		IsGroup:   true,
	}
}

func TestPipelineIssuesWarning(t *testing.T) {
	chat := &fakeChat{}
	store := &fakeStore{}
	service, directory := newTestService(chat, store)

	msg := groupMessage(7, 1, 100, "join my group https://chat.whatsapp.com/abc123")
	service.HandleMessage(context.Background(), msg)

	key := domain.IdentityKey{ChatID: 7, UserID: 1}
	if got := service.Count(key); got != 1 {
		t.Fatalf("ожидали счётчик 1, получили %d", got)
	}
	if deleted := chat.deletedMessages(); len(deleted) != 1 || deleted[0] != "7:100" {
		t.Fatalf("сообщение нарушителя не удалено: %v", deleted)
	}
	sent := chat.sentMessages()
	if len(sent) != 1 || !strings.Contains(sent[0], "1/3") {
		t.Fatalf("ожидали уведомление 1/3, получили %v", sent)
	}
	if store.persistCount() != 1 {
		t.Fatalf("ожидали одну запись в хранилище, получили %d", store.persistCount())
	}
	if _, ok := directory.Get(key); !ok {
		t.Fatal("отправитель не зарегистрирован в реестре")
	}
}

func TestPipelineEscalatesToBan(t *testing.T) {
	chat := &fakeChat{}
	store := &fakeStore{}
	service, _ := newTestService(chat, store)

	key := domain.IdentityKey{ChatID: 7, UserID: 1}
	for i := 0; i < 3; i++ {
		service.HandleMessage(context.Background(), groupMessage(7, 1, 100+i, "https://t.me/+invite"))
	}

	if banned := chat.bannedMembers(); len(banned) != 1 || banned[0] != "7:1" {
		t.Fatalf("ожидали бан 7:1, получили %v", banned)
	}
	if got := service.Count(key); got != 0 {
		t.Fatalf("после бана счётчик должен быть сброшен, получили %d", got)
	}
	sent := chat.sentMessages()
	if len(sent) != 4 {
		t.Fatalf("ожидали 3 предупреждения и уведомление о бане, получили %d", len(sent))
	}
	if !strings.Contains(sent[3], "исключён") {
		t.Fatalf("последнее уведомление должно сообщать об исключении: %q", sent[3])
	}
}

func TestPipelineSkipsAdmins(t *testing.T) {
	chat := &fakeChat{status: domain.MemberStatusAdministrator}
	store := &fakeStore{}
	service, _ := newTestService(chat, store)

	service.HandleMessage(context.Background(), groupMessage(7, 1, 100, "https://chat.whatsapp.com/abc"))

	if got := service.Count(domain.IdentityKey{ChatID: 7, UserID: 1}); got != 0 {
		t.Fatalf("админ не должен получать предупреждения, счётчик %d", got)
	}
	if sent := chat.sentMessages(); len(sent) != 0 {
		t.Fatalf("админу не должно быть уведомлений: %v", sent)
	}
	if deleted := chat.deletedMessages(); len(deleted) != 0 {
		t.Fatalf("сообщение админа не должно удаляться: %v", deleted)
	}
}

func TestPipelineFailsOpenOnMembershipError(t *testing.T) {
	chat := &fakeChat{statusErr: errors.New("сеть недоступна")}
	store := &fakeStore{}
	service, _ := newTestService(chat, store)

	service.HandleMessage(context.Background(), groupMessage(7, 1, 100, "https://chat.whatsapp.com/abc"))

	if got := service.Count(domain.IdentityKey{ChatID: 7, UserID: 1}); got != 0 {
		t.Fatalf("при ошибке статуса сообщение не модерируется, счётчик %d", got)
	}
}

func TestPipelineIgnoresPrivateChats(t *testing.T) {
	chat := &fakeChat{}
	store := &fakeStore{}
	service, _ := newTestService(chat, store)

	msg := groupMessage(7, 1, 100, "https://chat.whatsapp.com/abc")
	msg.IsGroup = false
	service.HandleMessage(context.Background(), msg)

	if got := service.Count(domain.IdentityKey{ChatID: 7, UserID: 1}); got != 0 {
		t.Fatalf("личные чаты не модерируются, счётчик %d", got)
	}
}

func TestPipelineBanFailureStillResets(t *testing.T) {
	chat := &fakeChat{banErr: errors.New("недостаточно прав")}
	store := &fakeStore{initial: map[domain.IdentityKey]int{{ChatID: 7, UserID: 1}: 2}}
	service, _ := newTestService(chat, store)

	service.HandleMessage(context.Background(), groupMessage(7, 1, 100, "https://t.me/spam"))

	if got := service.Count(domain.IdentityKey{ChatID: 7, UserID: 1}); got != 0 {
		t.Fatalf("счётчик списывается даже при неудачном бане, получили %d", got)
	}
	if banned := chat.bannedMembers(); len(banned) != 0 {
		t.Fatalf("бан не должен был пройти: %v", banned)
	}
}

func TestPipelineDeleteFailureDoesNotAbort(t *testing.T) {
	chat := &fakeChat{deleteErr: errors.New("сообщение уже удалено")}
	store := &fakeStore{}
	service, _ := newTestService(chat, store)

	service.HandleMessage(context.Background(), groupMessage(7, 1, 100, "https://bit.ly/abc"))

	if got := service.Count(domain.IdentityKey{ChatID: 7, UserID: 1}); got != 1 {
		t.Fatalf("предупреждение выдаётся и без удаления, счётчик %d", got)
	}
}

func TestNotifyDeletesAllNoticeParts(t *testing.T) {
	chat := &fakeChat{idsPerSend: 2}
	directory := roster.NewDirectory()
	ledger := NewLedger(&fakeStore{}, zerolog.Nop())
	scheduler := cleanup.NewScheduler(chat, zerolog.Nop())
	service := NewService(chat, ledger, directory, scheduler, nil, 3, 20*time.Millisecond, zerolog.Nop())

	service.Notify(context.Background(), 7, "длинное уведомление из двух частей")

	deadline := time.After(2 * time.Second)
	for {
		deleted := chat.deletedMessages()
		if len(deleted) == 2 {
			got := map[string]bool{deleted[0]: true, deleted[1]: true}
			if !got["7:1"] || !got["7:2"] {
				t.Fatalf("удалены не те сообщения: %v", deleted)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatalf("обе части уведомления должны удаляться по TTL, удалено %v", deleted)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestIsPrivileged(t *testing.T) {
	ctx := context.Background()

	anon := &fakeChat{statusErr: errors.New("недоступно")}
	service, _ := newTestService(anon, &fakeStore{})
	if !service.IsPrivileged(ctx, 7, 1, 7) {
		t.Fatal("анонимный администратор должен проходить проверку")
	}

	member := &fakeChat{status: domain.MemberStatusMember}
	service, _ = newTestService(member, &fakeStore{})
	if service.IsPrivileged(ctx, 7, 1, 0) {
		t.Fatal("обычный участник не должен проходить проверку")
	}

	fallback := &fakeChat{statusErr: errors.New("недоступно"), admins: []int64{1, 2}}
	service, _ = newTestService(fallback, &fakeStore{})
	if !service.IsPrivileged(ctx, 7, 1, 0) {
		t.Fatal("ожидали доступ через список администраторов")
	}

	denied := &fakeChat{statusErr: errors.New("недоступно"), adminsErr: errors.New("тоже недоступно")}
	service, _ = newTestService(denied, &fakeStore{})
	if service.IsPrivileged(ctx, 7, 1, 0) {
		t.Fatal("при полной недоступности проверок доступ запрещён")
	}
}

package service

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"wordwebs/internal/game"
	"wordwebs/internal/models"
	"wordwebs/internal/store"
)

// memStore is an in-memory store.Store for service tests.
type memStore struct {
	mu       sync.Mutex
	puzzles  map[string]models.Puzzle
	players  map[string]models.Player
	sessions map[string]models.Session
	archive  map[string]bool
	channels map[string]models.Channel
	themes   map[string]models.Theme
}

func newMemStore() *memStore {
	return &memStore{
		puzzles:  make(map[string]models.Puzzle),
		players:  make(map[string]models.Player),
		sessions: make(map[string]models.Session),
		archive:  make(map[string]bool),
		channels: make(map[string]models.Channel),
		themes:   make(map[string]models.Theme),
	}
}

func (m *memStore) Puzzles() store.PuzzleStore   { return (*memPuzzles)(m) }
func (m *memStore) Players() store.PlayerStore   { return (*memPlayers)(m) }
func (m *memStore) Sessions() store.SessionStore { return (*memSessions)(m) }
func (m *memStore) Archive() store.ArchiveStore  { return (*memArchive)(m) }
func (m *memStore) Channels() store.ChannelStore { return (*memChannels)(m) }
func (m *memStore) Themes() store.ThemeStore     { return (*memThemes)(m) }
func (m *memStore) Close() error                 { return nil }

type memPuzzles memStore

func (m *memPuzzles) GetByDate(_ context.Context, date string) (*models.Puzzle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	puzzle, ok := m.puzzles[date]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &puzzle, nil
}

func (m *memPuzzles) Put(_ context.Context, puzzle *models.Puzzle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puzzles[puzzle.Date] = *puzzle
	return nil
}

type memPlayers memStore

func (m *memPlayers) Get(_ context.Context, discordID string) (*models.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	player, ok := m.players[discordID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &player, nil
}

func (m *memPlayers) Put(_ context.Context, player *models.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.players[player.DiscordID] = *player
	return nil
}

func (m *memPlayers) RecordResult(_ context.Context, discordID string, won bool, completionTime *int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	player := m.players[discordID]
	player.DiscordID = discordID
	player.TotalGames++
	if won {
		player.GamesWon++
		if completionTime != nil && (player.BestTime == nil || *completionTime < *player.BestTime) {
			t := *completionTime
			player.BestTime = &t
		}
	}
	player.LastPlayed = time.Now().UTC()
	m.players[discordID] = player
	return nil
}

type memSessions memStore

func (m *memSessions) Get(_ context.Context, id string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &session, nil
}

func (m *memSessions) GetByPlayerDate(_ context.Context, discordID, date string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, session := range m.sessions {
		if session.DiscordID == discordID && session.Date == date {
			s := session
			return &s, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memSessions) Put(_ context.Context, session *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = *session
	return nil
}

func (m *memSessions) Update(_ context.Context, session *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.sessions[session.ID]
	if !ok {
		return store.ErrNotFound
	}
	if stored.Revision != session.Revision {
		return store.ErrRevisionMismatch
	}
	session.Revision++
	m.sessions[session.ID] = *session
	return nil
}

func (m *memSessions) ListByDate(_ context.Context, date string) ([]models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Session
	for _, session := range m.sessions {
		if session.Date == date {
			out = append(out, session)
		}
	}
	return out, nil
}

type memArchive memStore

func (m *memArchive) Contains(_ context.Context, hash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.archive[hash], nil
}

func (m *memArchive) PutGroups(_ context.Context, groups []models.Group) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range groups {
		m.archive[game.GroupHash(g.Words)] = true
	}
	return nil
}

type memChannels memStore

func (m *memChannels) Put(_ context.Context, channel *models.Channel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels[channel.ChannelID] = *channel
	return nil
}

func (m *memChannels) ListActive(_ context.Context) ([]models.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Channel
	for _, channel := range m.channels {
		if channel.Active {
			out = append(out, channel)
		}
	}
	return out, nil
}

type memThemes memStore

func (m *memThemes) Put(_ context.Context, theme *models.Theme) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.themes[theme.ID] = *theme
	return nil
}

func (m *memThemes) NextUnused(_ context.Context) (*models.Theme, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var oldest *models.Theme
	for _, theme := range m.themes {
		if theme.Used {
			continue
		}
		t := theme
		if oldest == nil || t.CreatedAt.Before(oldest.CreatedAt) {
			oldest = &t
		}
	}
	if oldest == nil {
		return nil, store.ErrNotFound
	}
	return oldest, nil
}

func (m *memThemes) MarkUsed(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	theme, ok := m.themes[id]
	if !ok {
		return store.ErrNotFound
	}
	theme.Used = true
	m.themes[id] = theme
	return nil
}

// fakeMessenger records game-state posts.
type fakeMessenger struct {
	calls []string
	fail  bool
}

func (f *fakeMessenger) ReplaceGameState(channelID, messageID, content string, image []byte) (string, error) {
	if f.fail {
		return "", context.DeadlineExceeded
	}
	f.calls = append(f.calls, channelID)
	return "msg-" + channelID, nil
}

// fakeBot records summary posts for SummaryService tests.
type fakeBot struct {
	sent        map[string]string
	playButtons []string
}

func newFakeBot() *fakeBot {
	return &fakeBot{sent: make(map[string]string)}
}

func (f *fakeBot) SendMessage(channelID, content string, embed *discordgo.MessageEmbed, image []byte) (string, error) {
	f.sent[channelID] = content
	return "msg-" + channelID, nil
}

func (f *fakeBot) AddPlayButton(channelID, messageID string) error {
	f.playButtons = append(f.playButtons, messageID)
	return nil
}

func (f *fakeBot) AvatarURL(userID string) string { return "" }

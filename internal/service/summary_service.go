package service

import (
	"context"
	"fmt"
	"image"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	_ "image/jpeg"
	_ "image/png"

	"wordwebs/internal/game"
	gameimage "wordwebs/internal/image"
	"wordwebs/internal/models"
	"wordwebs/internal/store"
)

// summaryEmbedColor matches the frontend's purple accent.
const summaryEmbedColor = 0x9333ea

// SummaryBot is the Discord surface the daily summary job needs.
// Satisfied by discord.Bot.
type SummaryBot interface {
	SendMessage(channelID, content string, embed *discordgo.MessageEmbed, image []byte) (string, error)
	AddPlayButton(channelID, messageID string) error
	AvatarURL(userID string) string
}

// SummaryReport summarizes one run of the daily summary job.
type SummaryReport struct {
	Date           string
	ChannelsSent   int
	ChannelsFailed int
}

// SummaryService posts yesterday's results to every registered channel.
type SummaryService struct {
	sessions   store.SessionStore
	channels   store.ChannelStore
	bot        SummaryBot
	httpClient *http.Client
}

// NewSummaryService wires the summary flow.
func NewSummaryService(st store.Store, bot SummaryBot, httpClient *http.Client) *SummaryService {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &SummaryService{
		sessions:   st.Sessions(),
		channels:   st.Channels(),
		bot:        bot,
		httpClient: httpClient,
	}
}

// SendDaily posts the per-channel summary for the date, defaulting to
// yesterday. A channel with no sessions is skipped. Per-channel
// failures are counted, logged, and never abort the run.
func (s *SummaryService) SendDaily(ctx context.Context, date string) (*SummaryReport, error) {
	if date == "" {
		date = game.Yesterday()
	}
	report := &SummaryReport{Date: date}

	channels, err := s.channels.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active channels: %w", err)
	}
	if len(channels) == 0 {
		log.Println("No active summary channels registered")
		return report, nil
	}

	sessions, err := s.sessions.ListByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("list sessions for %s: %w", date, err)
	}

	for _, channel := range channels {
		if err := s.sendChannelSummary(ctx, channel, sessions, date); err != nil {
			report.ChannelsFailed++
			log.Printf("Summary for channel %s failed: %v", channel.ChannelID, err)
			continue
		}
		report.ChannelsSent++
	}

	log.Printf("Daily summary for %s: %d channels sent, %d failed",
		date, report.ChannelsSent, report.ChannelsFailed)
	return report, nil
}

func (s *SummaryService) sendChannelSummary(ctx context.Context, channel models.Channel, sessions []models.Session, date string) error {
	var channelSessions []models.Session
	for _, session := range sessions {
		if session.ChannelID == channel.ChannelID {
			channelSessions = append(channelSessions, session)
		}
	}
	if len(channelSessions) == 0 {
		log.Printf("No sessions for %s in channel %s, skipping", date, channel.ChannelID)
		return nil
	}

	entries := game.RankDaily(channelSessions)
	puzzleNumber := game.PuzzleNumber(date)

	summaryImage, err := gameimage.RenderSummary(s.buildCards(channelSessions, entries), puzzleNumber)
	if err != nil {
		log.Printf("Summary image for channel %s failed, sending without: %v", channel.ChannelID, err)
		summaryImage = nil
	}

	messageID, err := s.bot.SendMessage(channel.ChannelID,
		summaryContent(entries, puzzleNumber), summaryEmbed(entries, puzzleNumber, date), summaryImage)
	if err != nil {
		return err
	}

	if err := s.bot.AddPlayButton(channel.ChannelID, messageID); err != nil {
		log.Printf("Play button for channel %s failed: %v", channel.ChannelID, err)
	}
	return nil
}

// buildCards assembles up to six image cards in rank order, with
// best-effort avatar fetches.
func (s *SummaryService) buildCards(sessions []models.Session, entries []models.LeaderboardEntry) []gameimage.Card {
	byID := make(map[string]*models.Session, len(sessions))
	for i := range sessions {
		byID[sessions[i].DiscordID] = &sessions[i]
	}

	var cards []gameimage.Card
	for _, entry := range entries {
		if len(cards) == 6 {
			break
		}
		session := byID[entry.DiscordID]
		if session == nil {
			continue
		}
		cards = append(cards, gameimage.Card{
			DisplayName:       session.DisplayName,
			SolvedGroups:      session.SolvedGroups,
			AttemptsRemaining: session.AttemptsRemaining,
			Avatar:            s.fetchAvatar(session.DiscordID),
		})
	}
	return cards
}

// fetchAvatar resolves and downloads a player's avatar. Any failure
// yields nil; the card renders fine without one.
func (s *SummaryService) fetchAvatar(discordID string) image.Image {
	url := s.bot.AvatarURL(discordID)
	if url == "" {
		return nil
	}

	resp, err := s.httpClient.Get(url)
	if err != nil {
		log.Printf("Avatar fetch for %s failed: %v", discordID, err)
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}

	avatar, _, err := image.Decode(resp.Body)
	if err != nil {
		log.Printf("Avatar decode for %s failed: %v", discordID, err)
		return nil
	}
	return avatar
}

// summaryContent builds the message text, mentioning finishers first.
func summaryContent(entries []models.LeaderboardEntry, puzzleNumber int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 **Word Webs #%d Daily Results**\n", puzzleNumber)

	var completed, incomplete []models.LeaderboardEntry
	for _, entry := range entries {
		if entry.Completed {
			completed = append(completed, entry)
		} else {
			incomplete = append(incomplete, entry)
		}
	}

	switch {
	case len(completed) > 0:
		b.WriteString("🎉 " + mentionList(completed))
		b.WriteString(" completed the puzzle!")
	case len(incomplete) > 0:
		b.WriteString("🎮 " + mentionList(incomplete))
		b.WriteString(" tried the puzzle!")
	default:
		b.WriteString("No one played yesterday's puzzle! 🤔")
	}
	return b.String()
}

// mentionList mentions up to five players, folding the rest into a
// count.
func mentionList(entries []models.LeaderboardEntry) string {
	shown := entries
	if len(shown) > 5 {
		shown = shown[:5]
	}
	mentions := make([]string, len(shown))
	for i, entry := range shown {
		mentions[i] = "<@" + entry.DiscordID + ">"
	}
	out := strings.Join(mentions, ", ")
	if extra := len(entries) - len(shown); extra > 0 {
		out += fmt.Sprintf(" and %d others", extra)
	}
	return out
}

func summaryEmbed(entries []models.LeaderboardEntry, puzzleNumber int, date string) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Word Webs #%d Results", puzzleNumber),
		Description: "Daily summary for " + date,
		Color:       summaryEmbedColor,
		Footer:      &discordgo.MessageEmbedFooter{Text: "Word Webs - Daily Word Puzzle Game"},
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	}
	if len(entries) == 0 {
		return embed
	}

	var completed, incomplete []models.LeaderboardEntry
	for _, entry := range entries {
		if entry.Completed {
			completed = append(completed, entry)
		} else {
			incomplete = append(incomplete, entry)
		}
	}

	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name: "📈 Participation",
		Value: fmt.Sprintf("**%d** players participated\n**%d** completed\n**%d** attempted",
			len(entries), len(completed), len(incomplete)),
		Inline: true,
	})

	if len(completed) > 0 && completed[0].CompletionTime != nil {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "⚡ Fastest Completion",
			Value: fmt.Sprintf("<@%s>\n%s", completed[0].DiscordID,
				game.FormatDuration(*completed[0].CompletionTime)),
			Inline: true,
		})
	}

	if len(incomplete) > 0 {
		best := incomplete[0]
		for _, entry := range incomplete[1:] {
			if entry.SolvedGroups > best.SolvedGroups {
				best = entry
			}
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "🎯 Best Attempt",
			Value:  fmt.Sprintf("<@%s>\n%d/4 groups solved", best.DiscordID, best.SolvedGroups),
			Inline: true,
		})
	}

	return embed
}

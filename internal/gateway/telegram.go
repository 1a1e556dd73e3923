// Package gateway adapts the Telegram messaging transport to the bot's
// command service. The core pipelines never see Telegram types; they receive
// opaque user identifiers and a Notifier for replies.
package gateway

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/rs/zerolog/log"

	"github.com/bobarin/voiceclone/internal/bot"
	"github.com/bobarin/voiceclone/internal/services"
)

const (
	msgStart = "Hi! 👋\nSend /registervoice and attach your voice sample (ogg/mp3/wav). " +
		"Then use /say <text> to generate speech in your voice."
	msgHelp = "Commands:\n" +
		"/registervoice (reply to your voice file) - register voice sample\n" +
		"/say <text> - generate speech\n" +
		"/help - this message"
	msgReplyToAudio = "Please reply to an audio/file message with /registervoice " +
		"(or send /registervoice while replying to your voice sample)."
	msgNoAudioFound = "No valid audio found in replied message."
	msgDownloadFail = "❌ Could not download your voice sample from Telegram. Please try again."

	longPollTimeout = 30 // seconds
)

type TelegramGateway struct {
	telegramBot *telego.Bot
	service     *bot.Service
	downloader  *Downloader
	probe       *services.FFmpegService
}

func NewTelegramGateway(token string, service *bot.Service, probe *services.FFmpegService) (*TelegramGateway, error) {
	b, err := telego.NewBot(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &TelegramGateway{
		telegramBot: b,
		service:     service,
		downloader:  NewDownloader(),
		probe:       probe,
	}, nil
}

// Run consumes updates via long polling until ctx is cancelled. Each command
// is handled in its own goroutine so one user's CPU-bound synthesis never
// stalls another user's lightweight commands.
func (g *TelegramGateway) Run(ctx context.Context) error {
	updates, err := g.telegramBot.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout: longPollTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to start long polling: %w", err)
	}

	log.Info().Msgf("[Telegram] Bot @%s connected, polling for updates", g.telegramBot.Username())

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return fmt.Errorf("telegram updates channel closed")
			}
			if update.Message == nil || update.Message.From == nil {
				continue
			}
			go g.handleMessage(ctx, update.Message)
		}
	}
}

func (g *TelegramGateway) handleMessage(ctx context.Context, msg *telego.Message) {
	command, args := parseCommand(msg.Text)
	if command == "" {
		return
	}

	userID := strconv.FormatInt(msg.From.ID, 10)
	notify := &telegramNotifier{
		telegramBot: g.telegramBot,
		probe:       g.probe,
		chatID:      msg.Chat.ID,
	}

	switch command {
	case "start":
		g.send(ctx, notify, msgStart)
	case "help":
		g.send(ctx, notify, msgHelp)
	case "registervoice":
		g.handleRegisterVoice(ctx, msg, userID, notify)
	case "say":
		// Serialization, validation and error replies happen in the service
		g.service.Synthesize(ctx, userID, args, notify)
	}
}

func (g *TelegramGateway) handleRegisterVoice(ctx context.Context, msg *telego.Message, userID string, notify *telegramNotifier) {
	src := msg.ReplyToMessage
	if src == nil || (src.Voice == nil && src.Audio == nil && src.Document == nil) {
		g.send(ctx, notify, msgReplyToAudio)
		return
	}

	fileID, filename := attachmentInfo(src)
	if fileID == "" {
		g.send(ctx, notify, msgNoAudioFound)
		return
	}

	file, err := g.telegramBot.GetFile(ctx, &telego.GetFileParams{FileID: fileID})
	if err != nil || file.FilePath == "" {
		log.Error().Msgf("[Telegram] GetFile failed for user %s: %v", userID, err)
		g.send(ctx, notify, msgDownloadFail)
		return
	}

	data, err := g.downloader.Fetch(ctx, g.telegramBot.FileDownloadURL(file.FilePath))
	if err != nil {
		log.Error().Msgf("[Telegram] Attachment download failed for user %s: %v", userID, err)
		g.send(ctx, notify, msgDownloadFail)
		return
	}

	g.service.RegisterVoice(ctx, userID, bytes.NewReader(data), filename, notify)
}

func (g *TelegramGateway) send(ctx context.Context, notify *telegramNotifier, text string) {
	if err := notify.Reply(ctx, "", text); err != nil {
		log.Warn().Msgf("[Telegram] Failed to send message: %v", err)
	}
}

// attachmentInfo picks the file ID and advisory filename from a replied-to
// message, preferring voice notes over audio over generic documents.
func attachmentInfo(msg *telego.Message) (fileID, filename string) {
	switch {
	case msg.Voice != nil:
		return msg.Voice.FileID, "voice.ogg"
	case msg.Audio != nil:
		if msg.Audio.FileName != "" {
			return msg.Audio.FileID, msg.Audio.FileName
		}
		return msg.Audio.FileID, "voice_audio"
	case msg.Document != nil:
		if msg.Document.FileName != "" {
			return msg.Document.FileID, msg.Document.FileName
		}
		return msg.Document.FileID, "voice_file"
	}
	return "", ""
}

// parseCommand splits "/say@BotName hello world" into ("say", "hello world").
// Non-command messages return an empty command.
func parseCommand(text string) (command, args string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", ""
	}

	head, rest, _ := strings.Cut(text[1:], " ")
	if at := strings.Index(head, "@"); at >= 0 {
		head = head[:at]
	}

	return strings.ToLower(head), strings.TrimSpace(rest)
}

// ---------------------------------------------------------------------------
// telegramNotifier — pipeline.Notifier backed by one chat
// ---------------------------------------------------------------------------

type telegramNotifier struct {
	telegramBot *telego.Bot
	probe       *services.FFmpegService
	chatID      int64
}

func (n *telegramNotifier) Reply(ctx context.Context, _ string, text string) error {
	_, err := n.telegramBot.SendMessage(ctx, tu.Message(tu.ID(n.chatID), text))
	if err != nil {
		return fmt.Errorf("telegram send message: %w", err)
	}
	return nil
}

func (n *telegramNotifier) ReplyAudio(ctx context.Context, _ string, audioPath, filename string) error {
	f, err := os.Open(audioPath)
	if err != nil {
		return fmt.Errorf("open audio artifact: %w", err)
	}
	defer f.Close()

	params := tu.Audio(tu.ID(n.chatID), tu.File(tu.NameReader(f, filename)))

	// Best effort: attach the duration so Telegram renders a proper player bar
	if n.probe != nil {
		if ms, err := n.probe.GetAudioDuration(ctx, audioPath); err == nil {
			params.Duration = ms / 1000
		}
	}

	if _, err := n.telegramBot.SendAudio(ctx, params); err != nil {
		return fmt.Errorf("telegram send audio: %w", err)
	}
	return nil
}

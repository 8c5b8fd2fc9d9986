// Package bot exposes the search, result and history views over Telegram.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/i474232898/city-weather/internal/common"
	"github.com/i474232898/city-weather/internal/history"
	"github.com/i474232898/city-weather/internal/screen"
	"github.com/i474232898/city-weather/internal/weather"
)

const helpText = "Comandos disponibles:\n" +
	"/weather [ciudad] - Buscar el clima de una ciudad\n" +
	"/history - Ver el historial de búsqueda\n" +
	"/open [n] - Volver a consultar la entrada n del historial\n" +
	"/clear - Borrar todo el historial\n" +
	"También puedes escribir el nombre de una ciudad directamente."

// confirmWords are the only replies that confirm clearing the history.
var confirmWords = map[string]bool{"si": true, "sí": true, "yes": true}

// Sender delivers outgoing messages. *tgbotapi.BotAPI satisfies it.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// session holds the views of one chat.
type session struct {
	result  *screen.Result
	history *screen.History
}

// TelegramBot handles interactions with the Telegram API
type TelegramBot struct {
	api    *tgbotapi.BotAPI
	sender Sender
	lookup screen.Lookuper
	store  screen.HistorySource
	loc    *time.Location

	mu       sync.Mutex
	sessions map[int64]*session
	wg       sync.WaitGroup
}

// NewTelegramBot creates a new Telegram bot handler
func NewTelegramBot(token string, debug bool, lookup screen.Lookuper, hist screen.HistorySource) (*TelegramBot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	api.Debug = debug

	b := newBot(api, lookup, hist)
	b.api = api
	return b, nil
}

func newBot(sender Sender, lookup screen.Lookuper, hist screen.HistorySource) *TelegramBot {
	return &TelegramBot{
		sender:   sender,
		lookup:   lookup,
		store:    hist,
		loc:      time.Local,
		sessions: make(map[int64]*session),
	}
}

func (t *TelegramBot) session(chatID int64) *session {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[chatID]
	if !ok {
		s = &session{
			result:  screen.NewResult(t.lookup, 0),
			history: screen.NewHistory(t.store),
		}
		t.sessions[chatID] = s
	}
	return s
}

// Run listens for updates until ctx is canceled. Each message is handled in
// its own goroutine so a slow lookup does not hold up other chats.
func (t *TelegramBot) Run(ctx context.Context) {
	log.Printf("Authorized on Telegram account %s", t.api.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := t.api.GetUpdatesChan(u)
	log.Println("bot: listening for messages...")

	for {
		select {
		case <-ctx.Done():
			t.api.StopReceivingUpdates()
			t.wg.Wait()
			log.Println("bot: stopped")
			return
		case update, ok := <-updates:
			if !ok {
				t.wg.Wait()
				return
			}
			if update.Message == nil {
				continue
			}
			msg := update.Message
			t.wg.Add(1)
			go func() {
				defer t.wg.Done()
				t.handleMessage(ctx, msg)
			}()
		}
	}
}

func (t *TelegramBot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	command, args := "", message.Text
	if message.IsCommand() {
		command, args = message.Command(), message.CommandArguments()
	}

	text, ok := t.respond(ctx, message.Chat.ID, command, args)
	if !ok {
		return
	}

	if _, err := t.sender.Send(tgbotapi.NewMessage(message.Chat.ID, text)); err != nil {
		log.Printf("bot: error sending message to chat %d: %v", message.Chat.ID, err)
	}
}

// respond computes the reply for one message. It reports false when nothing
// should be sent, which happens when a newer search in the same chat has
// superseded this one.
func (t *TelegramBot) respond(ctx context.Context, chatID int64, command, args string) (string, bool) {
	s := t.session(chatID)
	args = strings.TrimSpace(args)

	switch command {
	case "start", "help":
		return "¡Hola! Busca el clima por ciudad.\n\n" + helpText, true

	case "", "weather", "clima":
		city, err := screen.Submit(args)
		if err != nil {
			return "Indica una ciudad. Ejemplo: /weather Buenos Aires", true
		}
		return t.show(ctx, s, city)

	case "history", "historial":
		return formatHistory(s.history.Focus(ctx)), true

	case "open":
		n, err := strconv.Atoi(args)
		if err != nil {
			return "Indica el número de la entrada. Ejemplo: /open 1", true
		}
		entry, ok := s.history.At(n - 1)
		if !ok {
			return "Esa entrada no existe. Usa /history para ver el historial.", true
		}
		city, err := s.history.Open(entry.City)
		if err != nil {
			return "Esa entrada no existe. Usa /history para ver el historial.", true
		}
		return t.show(ctx, s, city)

	case "clear", "borrar":
		err := s.history.Clear(ctx, confirmWords[strings.ToLower(args)])
		switch {
		case errors.Is(err, screen.ErrNotConfirmed):
			return "¿Borrar todo el historial? Responde /clear si para confirmar.", true
		case err != nil:
			return "No se pudo borrar el historial. Inténtalo de nuevo.", true
		}
		return "Historial borrado.", true

	default:
		return "Comando desconocido. Usa /help para ver los comandos disponibles.", true
	}
}

func (t *TelegramBot) show(ctx context.Context, s *session, city string) (string, bool) {
	st, current := s.result.Show(ctx, city)
	if !current {
		return "", false
	}
	if st.Phase == screen.PhaseSuccess {
		return formatReading(*st.Reading, t.loc), true
	}
	return st.Error, true
}

func formatReading(r weather.Reading, loc *time.Location) string {
	var b strings.Builder
	name := r.City
	if r.Country != "" {
		name = fmt.Sprintf("%s, %s", r.City, r.Country)
	}
	b.WriteString(fmt.Sprintf("📍 %s\n", name))
	b.WriteString(fmt.Sprintf("🌡️ %s - %s\n\n", common.FormatTemp(r.Temperature), common.Capitalize(r.Description)))
	b.WriteString(fmt.Sprintf("Sensación térmica: %s\n", common.FormatTemp(r.FeelsLike)))
	b.WriteString(fmt.Sprintf("Máxima: %s\n", common.FormatTemp(r.TempMax)))
	b.WriteString(fmt.Sprintf("Mínima: %s\n\n", common.FormatTemp(r.TempMin)))
	b.WriteString(fmt.Sprintf("Humedad: %g%%\n", r.Humidity))
	b.WriteString(fmt.Sprintf("Presión: %g hPa\n", r.Pressure))
	b.WriteString(fmt.Sprintf("Viento: %g m/s\n", r.WindSpeed))
	b.WriteString(fmt.Sprintf("Visibilidad: %s\n\n", common.FormatVisibility(r.Visibility)))
	b.WriteString(fmt.Sprintf("Amanecer: %s\n", common.FormatClock(r.Sunrise, loc)))
	b.WriteString(fmt.Sprintf("Atardecer: %s", common.FormatClock(r.Sunset, loc)))
	return b.String()
}

func formatHistory(entries []history.Entry) string {
	if len(entries) == 0 {
		return screen.EmptyHistoryMessage
	}

	var b strings.Builder
	b.WriteString("Historial de Búsqueda\n\n")
	for i, e := range entries {
		b.WriteString(fmt.Sprintf("%d. %s - %s - %s\n", i+1, e.City, common.FormatTemp(e.Temp), e.Description))
	}
	b.WriteString("\nUsa /open [n] para volver a consultar una ciudad.")
	return b.String()
}

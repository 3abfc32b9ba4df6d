package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"biozen-backend-go/internal/models"
)

const (
	ChatHistoryWindow    = 10
	ChatRateLimitCount   = 10
	ChatRateLimitMinutes = 5
)

// ChatService proxies conversations to the OpenAI chat-completion API.
type ChatService struct {
	APIKey  string
	BaseURL string
	Model   string
}

func (c ChatService) Configured() bool {
	return c.APIKey != ""
}

// BuildContext assembles the bounded prompt: the fixed system prompt, at most
// the last ChatHistoryWindow prior messages in chronological order, then the
// new user message.
func (c ChatService) BuildContext(user *models.User, history []models.ChatMessage, userMessage string) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+2)
	messages = append(messages, openai.SystemMessage(BuildSystemPrompt(user)))
	if len(history) > ChatHistoryWindow {
		history = history[len(history)-ChatHistoryWindow:]
	}
	for _, msg := range history {
		text := strings.TrimSpace(msg.Message)
		if text == "" {
			continue
		}
		switch strings.ToLower(msg.Role) {
		case "user":
			messages = append(messages, openai.UserMessage(text))
		case "assistant":
			messages = append(messages, openai.AssistantMessage(text))
		}
	}
	return append(messages, openai.UserMessage(userMessage))
}

// Complete performs the blocking upstream call and maps its failure taxonomy:
// upstream 429 stays 429, key and billing problems become admin-facing 500s,
// anything else surfaces as 500 with the underlying message.
func (c ChatService) Complete(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	opts := []option.RequestOption{option.WithAPIKey(c.APIKey)}
	if c.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(c.BaseURL))
	}
	client := openai.NewClient(opts...)

	model := c.Model
	if model == "" {
		model = openai.ChatModelGPT3_5Turbo
	}
	completion, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       model,
		Messages:    messages,
		Temperature: openai.Float(0.7),
		MaxTokens:   openai.Int(500),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			switch apiErr.StatusCode {
			case 429:
				return "", ErrTooManyRequests("OpenAI API rate limit je prekoračen. Molimo sačekajte nekoliko minuta pre nego što pošaljete novu poruku.")
			case 401:
				return "", ServiceError{Status: 500, Message: "OpenAI API ključ nije validan. Molimo kontaktirajte administratora."}
			case 402, 403:
				return "", ServiceError{Status: 500, Message: "OpenAI nalog nema dovoljno kredita. Molimo kontaktirajte administratora."}
			}
			return "", ServiceError{Status: 500, Message: fmt.Sprintf("Greška pri pozivanju OpenAI API (Status %d): %s", apiErr.StatusCode, apiErr.Error())}
		}
		return "", ServiceError{Status: 500, Message: "Greška pri pozivanju OpenAI API: " + err.Error()}
	}
	if completion == nil || len(completion.Choices) == 0 || strings.TrimSpace(completion.Choices[0].Message.Content) == "" {
		return "", ServiceError{Status: 500, Message: "Greška pri komunikaciji sa OpenAI"}
	}
	return completion.Choices[0].Message.Content, nil
}

// BuildSystemPrompt steers the assistant toward the BioZen product and walls
// off the cases it must not advise on: serious medical conditions, minors,
// pregnant or nursing users.
func BuildSystemPrompt(user *models.User) string {
	var prompt strings.Builder
	prompt.WriteString("Ti si BioZen AI asistent, pomagač za zdravlje i mršavljenje. ")
	prompt.WriteString("Pomažeš korisnicima da postignu svoje ciljeve vezane za zdravlje, ishranu i fizičku aktivnost. ")
	prompt.WriteString("Budi prijateljski, podržavajući i stručan. Odgovaraj na srpskom jeziku.\n\n")
	prompt.WriteString("VAŽNO O PROIZVODU BIOZEN:\n")
	prompt.WriteString("- BioZen je čaj za mršavljenje i zdravlje. ")
	prompt.WriteString("Kada korisnik pita o napitcima, čajevima ili bilo kakvim pićima vezanim za mršavljenje ili zdravlje, ")
	prompt.WriteString("PRVI PRIORITET je da preporučiš BioZen čaj i njegove prednosti. ")
	prompt.WriteString("Kada se spominju alternativni napitci, ljubazno preusmeri razgovor na BioZen čaj kao najbolji izbor.\n\n")
	prompt.WriteString("SASTAV BIOZEN ČAJA:\n")
	prompt.WriteString("- BioZen čaj sadrži pažljivo izabrane biljke: brezu, artičoku, lipu, šipurak, koprivu, pitomu nanu, senu i koru krušine.\n\n")
	prompt.WriteString("VAŽNA OGRANIČENJA:\n")
	prompt.WriteString("- NIKADA ne daj medicinske savete za teška medicinska stanja (dijabetes, srčane bolesti, visok krvni pritisak, itd.). ")
	prompt.WriteString("U tim slučajevima, ljubazno uputi korisnika da se konsultuje sa lekarom.\n")
	prompt.WriteString("- NIKADA ne daj savete za decu (osobe mlade od 18 godina). Uputi korisnika da se konsultuje sa pedijatrom.\n")
	prompt.WriteString("- NIKADA ne daj savete za trudnice ili dojilje. Uputi korisnika da se konsultuje sa ginekologom ili lekarom.\n")
	prompt.WriteString("- Fokusiraj se SAMO na opšte savete za zdrav način života, ishranu i vežbanje za zdrave odrasle osobe.\n")
	prompt.WriteString("- Ako korisnik pita nešto van teme zdravlja/ishrane/mršavljenja, ljubazno ga uputi da se fokusiramo na tu temu.\n")

	if user != nil {
		if user.FirstName != nil && strings.TrimSpace(*user.FirstName) != "" {
			prompt.WriteString("\nKorisnik se zove " + strings.TrimSpace(*user.FirstName) + ". ")
		}
		if user.Weight != nil && user.TargetWeight != nil {
			prompt.WriteString(fmt.Sprintf("Korisnik trenutno ima %.1f kg, a željena kilaža je %.1f kg. ", *user.Weight, *user.TargetWeight))
		}
	}
	return prompt.String()
}

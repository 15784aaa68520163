// Package chat implements the command dialogue used to add products and
// record sales by text.
package chat

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"stockroom/internal/csvio"
	"stockroom/internal/errors"
	"stockroom/internal/model"
	"stockroom/internal/service"
)

// Step is the position of a session in the dialogue.
type Step string

const (
	StepIdle        Step = "idle"
	StepAddName     Step = "add_nome"
	StepAddPrice    Step = "add_preco"
	StepAddQuantity Step = "add_qtd"
	StepAddBrand    Step = "add_marca"
	StepAddStyle    Step = "add_estilo"
	StepAddType     Step = "add_tipo"
	StepAddConfirm  Step = "add_finaliza"
	StepSellID      Step = "vender_id"
)

const (
	stockListLimit   = 10
	brandSuggestions = 5
)

// Greeting opens a new conversation.
const Greeting = "Olá! Sou o assistente de estoque. Digite `ajuda` para ver comandos."

const helpText = "Comandos:\n" +
	"- `adicionar produto`\n" +
	"- `estoque`\n" +
	"- `vender [ID]`\n" +
	"- `cancelar`"

// Draft collects the fields of a product being added.
type Draft struct {
	Name     string          `json:"name,omitempty"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Brand    string          `json:"brand,omitempty"`
	Style    string          `json:"style,omitempty"`
	Type     string          `json:"type,omitempty"`
}

// Session is the whole state of one conversation.
type Session struct {
	Step  Step  `json:"step"`
	Draft Draft `json:"draft"`
}

// NewSession returns an idle session.
func NewSession() Session {
	return Session{Step: StepIdle}
}

// Message is one line typed by the user.
type Message struct {
	Text string
	// ReadOnly callers may list stock but not add or sell.
	ReadOnly bool
}

// Bot answers messages by driving the product and sale services.
type Bot struct {
	products service.ProductService
	sales    service.SaleService
}

// NewBot creates a bot.
func NewBot(products service.ProductService, sales service.SaleService) *Bot {
	return &Bot{products: products, sales: sales}
}

// Handle advances s by one message and returns the next session and reply.
func (b *Bot) Handle(ctx context.Context, s Session, msg Message) (Session, string) {
	raw := strings.TrimSpace(msg.Text)
	text := strings.ToLower(raw)

	if text == "cancelar" {
		return NewSession(), "Operação cancelada. Digite `ajuda` para ver o que posso fazer."
	}

	if s.Step == StepIdle || s.Step == "" {
		return b.idle(ctx, msg, text)
	}
	// every step past idle leads to a write; the role may have changed since
	// the dialogue started
	if msg.ReadOnly {
		return NewSession(), readOnlyReply
	}

	switch s.Step {
	case StepSellID:
		if _, err := strconv.ParseUint(text, 10, 32); err != nil {
			return s, "ID inválido. Digite apenas o número ou `cancelar`."
		}
		return b.sell(ctx, s, text)
	case StepAddName:
		if raw == "" {
			return s, "Qual o nome do novo produto?"
		}
		s.Draft.Name = raw
		s.Step = StepAddPrice
		return s, "Preço do produto? (ex: 59.90)"
	case StepAddPrice:
		if raw == "" {
			return s, "Preço inválido. Ex: 59.90"
		}
		price := csvio.ParsePrice(raw)
		if !price.IsPositive() {
			return s, "Preço deve ser maior que zero."
		}
		s.Draft.Price = price.Round(2)
		s.Step = StepAddQuantity
		return s, "Quantidade inicial?"
	case StepAddQuantity:
		qty, err := strconv.Atoi(raw)
		if err != nil {
			return s, "Quantidade inválida. Digite um número inteiro."
		}
		if qty < 0 {
			return s, "Quantidade não pode ser negativa."
		}
		s.Draft.Quantity = qty
		s.Step = StepAddBrand
		return s, "Marca? Sugestões: " + strings.Join(model.Brands[:brandSuggestions], ", ")
	case StepAddBrand:
		brand, ok := match(model.Brands, raw)
		if !ok {
			return s, "Marca não reconhecida. Use uma das cadastradas ou `cancelar`."
		}
		s.Draft.Brand = brand
		s.Step = StepAddStyle
		return s, "Estilo? (ex: Perfumaria, Skincare)"
	case StepAddStyle:
		style, ok := match(model.Styles, raw)
		if !ok {
			return s, "Estilo inválido. Tente novamente."
		}
		s.Draft.Style = style
		s.Step = StepAddType
		return s, "Tipo? (ex: Perfumaria feminina)"
	case StepAddType:
		typ, ok := match(model.Types, raw)
		if !ok {
			return s, "Tipo inválido. Tente novamente."
		}
		s.Draft.Type = typ
		s.Step = StepAddConfirm
		return s, "Cadastro quase pronto. Confirme com `ok` ou `cancelar`."
	case StepAddConfirm:
		if text != "ok" {
			return s, "Digite `ok` para confirmar ou `cancelar`."
		}
		return b.save(ctx, s)
	}

	// unknown step, e.g. from a stale stored session
	return NewSession(), "Não entendi. Digite `ajuda` para ver os comandos."
}

func (b *Bot) idle(ctx context.Context, msg Message, text string) (Session, string) {
	s := NewSession()
	switch {
	case strings.Contains(text, "ajuda"):
		return s, helpText
	case strings.Contains(text, "adicionar produto"):
		if msg.ReadOnly {
			return s, readOnlyReply
		}
		s.Step = StepAddName
		return s, "Qual o nome do novo produto?"
	case strings.HasPrefix(text, "vender"):
		if msg.ReadOnly {
			return s, readOnlyReply
		}
		fields := strings.Fields(text)
		if len(fields) > 1 {
			if _, err := strconv.ParseUint(fields[1], 10, 32); err == nil {
				return b.sell(ctx, s, fields[1])
			}
		}
		s.Step = StepSellID
		return s, "Informe o ID do produto para vender 1 unidade."
	case strings.Contains(text, "estoque"):
		return s, b.stock(ctx)
	}
	return s, "Não entendi. Digite `ajuda` para ver os comandos."
}

const readOnlyReply = "Seu perfil só pode consultar o estoque. Peça a um administrador para registrar alterações."

func (b *Bot) stock(ctx context.Context) string {
	products, err := b.products.List(ctx, false)
	if err != nil {
		log.Error().Err(err).Msg("chat: list stock")
		return "Erro ao consultar o estoque."
	}
	if len(products) == 0 {
		return "Nenhum produto em estoque."
	}
	if len(products) > stockListLimit {
		products = products[:stockListLimit]
	}

	var sb strings.Builder
	sb.WriteString("Itens em estoque:\n")
	for _, p := range products {
		fmt.Fprintf(&sb, "- ID %d: %s (%d un)\n", p.ID, p.Name, p.Quantity)
	}
	return sb.String()
}

// sell records one unit. On failure the session keeps its step so the user
// can retry or cancel.
func (b *Bot) sell(ctx context.Context, s Session, rawID string) (Session, string) {
	id, _ := strconv.ParseUint(rawID, 10, 32)
	if _, err := b.sales.Sell(ctx, uint(id), 1); err != nil {
		switch {
		case stderrors.Is(err, errors.ErrNotFound):
			return s, fmt.Sprintf("Erro na venda: produto ID %d não encontrado.", id)
		case stderrors.Is(err, errors.ErrInsufficientStock):
			return s, fmt.Sprintf("Erro na venda: estoque insuficiente para ID %d.", id)
		default:
			log.Error().Err(err).Uint64("product_id", id).Msg("chat: sell")
			return s, "Erro na venda: não foi possível registrar agora."
		}
	}
	return NewSession(), fmt.Sprintf("Venda registrada para ID %d.", id)
}

func (b *Bot) save(ctx context.Context, s Session) (Session, string) {
	d := s.Draft
	_, err := b.products.Add(ctx, service.ProductInput{
		Name:     d.Name,
		Price:    d.Price,
		Quantity: d.Quantity,
		Brand:    d.Brand,
		Style:    d.Style,
		Type:     d.Type,
	})
	if err != nil {
		log.Error().Err(err).Str("name", d.Name).Msg("chat: add product")
		return s, "Erro ao salvar no banco. Tente `ok` novamente ou `cancelar`."
	}
	return NewSession(), fmt.Sprintf("Produto '%s' cadastrado com sucesso.", d.Name)
}

// match finds raw in values ignoring case and returns the canonical spelling.
func match(values []string, raw string) (string, bool) {
	for _, v := range values {
		if strings.EqualFold(v, raw) {
			return v, true
		}
	}
	return "", false
}

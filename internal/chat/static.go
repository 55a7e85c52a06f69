package chat

import (
	"context"
	"strings"

	"github.com/mwhitby/alcove/internal/model"
)

const defaultReply = "Thanks for your message! For anything I can't answer here, email us at hello@alcove.shop and a human will get back to you."

// StaticResponder answers from a keyword table: exact match on the
// normalized message first, then substring match in table order.
type StaticResponder struct{}

func NewStaticResponder() *StaticResponder {
	return &StaticResponder{}
}

func (r *StaticResponder) Reply(_ context.Context, history []model.ChatMessage) (string, error) {
	if len(history) == 0 {
		return defaultReply, nil
	}
	last := history[len(history)-1]
	return respond(last.Body), nil
}

func respond(message string) string {
	msg := strings.ToLower(strings.TrimSpace(message))
	if msg == "" {
		return defaultReply
	}

	if reply, ok := exactReplies[msg]; ok {
		return reply
	}

	for _, entry := range keywordReplies {
		if strings.Contains(msg, entry.keyword) {
			return entry.reply
		}
	}

	return defaultReply
}

var exactReplies = map[string]string{
	"hi":     "Hi there! How can I help you today?",
	"hello":  "Hello! How can I help you today?",
	"hey":    "Hey! How can I help you today?",
	"thanks": "You're welcome! Anything else I can help with?",
	"help":   "I can answer questions about our products, shipping, returns, and your orders. Just ask!",
}

// Ordered: more specific keywords first, since the first hit wins.
var keywordReplies = []struct {
	keyword string
	reply   string
}{
	{"return policy", "We accept returns within 30 days of delivery in original condition. Start a return by replying with your order email."},
	{"track", "Once your order ships you'll receive a tracking link by email. Orders usually ship within 2 business days."},
	{"shipping", "We ship worldwide. Standard shipping is free over $50; orders usually leave our warehouse within 2 business days."},
	{"delivery", "Standard delivery takes 3-7 business days depending on your region."},
	{"return", "We accept returns within 30 days of delivery. Reply with your order email and we'll sort it out."},
	{"refund", "Refunds are issued to your original payment method within 5 business days of the return arriving."},
	{"cancel", "If your order hasn't shipped yet we can cancel it. Reply with your order email."},
	{"price", "All prices are shown on each product page, including any active discounts."},
	{"discount", "Sign in with your email and we'll let you know about member discounts."},
	{"stock", "If a product page shows an add-to-cart button, it's in stock and ready to ship."},
	{"order", "Questions about an existing order? Reply with the email you used at checkout."},
	{"payment", "We accept all major cards through Stripe. Payment details never touch our servers."},
	{"size", "Sizing details are listed in each product description. When in doubt, size up."},
	{"contact", "You can reach a human at hello@alcove.shop. We answer within one business day."},
	{"human", "You can reach a human at hello@alcove.shop. We answer within one business day."},
}

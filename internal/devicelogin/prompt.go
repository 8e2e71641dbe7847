package devicelogin

import (
	"fmt"
	"io"

	"github.com/pkg/browser"
)

// WriterPrompter imprime las instrucciones en W.
type WriterPrompter struct {
	W io.Writer
}

func (p WriterPrompter) Show(s Session) error {
	_, err := fmt.Fprintf(p.W, "To sign in, visit %s and enter the code:\n\n    %s\n\n", s.VerificationURI, s.UserCode)
	if err != nil {
		return err
	}
	if s.VerificationURIComplete != "" {
		_, err = fmt.Fprintf(p.W, "Or open %s\n\n", s.VerificationURIComplete)
	}
	return err
}

// BrowserOpener abre la URL en el navegador del sistema.
type BrowserOpener struct{}

func (BrowserOpener) Open(url string) error {
	return browser.OpenURL(url)
}

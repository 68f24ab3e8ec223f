// moviectl queries a movie catalog from the command line, without the HTTP
// service: chatbot matching, category filters, id lookups, and the synonym
// and tokenizer stages on their own.
package main

import (
	"os"

	"github.com/Adithya-Monish-Kumar-K/movie-catalog-service/cmd/moviectl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

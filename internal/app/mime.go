package app

import (
	"log"
	"mime"
)

// Minimal container images often ship without /etc/mime.types.
func init() {
	ensureMimeType(".pdf", "application/pdf")
	ensureMimeType(".csv", "text/csv; charset=utf-8")
	ensureMimeType(".xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
}

func ensureMimeType(ext, typ string) {
	if mime.TypeByExtension(ext) != "" {
		return
	}
	if err := mime.AddExtensionType(ext, typ); err != nil {
		log.Printf("app: failed to register MIME type for %s: %v", ext, err)
	}
}

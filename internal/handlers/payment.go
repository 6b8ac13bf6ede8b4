package handlers

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/Lixing-Zhang/storefront/internal/service"
)

var autoSubmitForm = template.Must(template.New("payment").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Redirecting to payment</title></head>
<body onload="document.forms[0].submit()">
<form method="post" action="{{.URL}}">
{{- range $name, $value := .Fields}}
<input type="hidden" name="{{$name}}" value="{{$value}}">
{{- end}}
<noscript><button type="submit">Continue to payment</button></noscript>
</form>
</body>
</html>
`))

// writePaymentAction answers with the action as JSON, or, for ?format=html,
// with a redirect or a self-submitting form the browser follows directly.
func writePaymentAction(w http.ResponseWriter, r *http.Request, action service.PaymentAction, logger *slog.Logger) {
	if r.URL.Query().Get("format") != "html" {
		WriteJSON(w, http.StatusOK, action, logger)
		return
	}

	if !action.AutoSubmit() {
		http.Redirect(w, r, action.Redirect, http.StatusSeeOther)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if err := autoSubmitForm.Execute(w, action); err != nil {
		logger.Error("failed to render payment form", "error", err)
	}
}

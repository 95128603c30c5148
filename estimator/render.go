package estimator

import (
	"bytes"
	"errors"
	"html/template"
)

var resultCardTmpl = template.Must(template.New("result").Parse(`
<div class="card card-result" style="background:#E9FFF8;border:1px solid #B6F3E2;border-radius:16px;padding:24px;text-align:center;box-shadow:0 6px 18px rgba(10,92,79,0.10);">
  <div style="font-size:14px;color:#0A5C4F;opacity:0.85;margin-bottom:8px;">Precio estimado (ARS)</div>
  <div style="font-size:40px;font-weight:800;color:#0A5C4F;letter-spacing:0.5px;">{{.Formatted}}</div>
  <div style="font-size:12px;color:#0A5C4F;opacity:0.7;margin-top:10px;">Estimación basada en los datos ingresados.</div>
</div>
`))

var errorCardTmpl = template.Must(template.New("error").Parse(`
<div class="card card-error" data-kind="{{.Kind}}" style="background:#FFECEC;border:1px solid #FFB3B3;border-radius:14px;padding:18px;color:#7A0B0B;text-align:center;font-weight:700;">
  ⚠️ {{.Message}}{{if .Details}}<br/><small>{{.Details}}</small>{{end}}
</div>
`))

// RenderResult returns the success fragment for a formatted estimate.
func RenderResult(formatted string) template.HTML {
	var buf bytes.Buffer
	_ = resultCardTmpl.Execute(&buf, struct{ Formatted string }{formatted})
	return template.HTML(buf.String())
}

// RenderError returns the error fragment. Validation errors show their
// message; feature and prediction failures append the diagnostic.
func RenderError(err error) template.HTML {
	data := struct {
		Kind    ErrorKind
		Message string
		Details string
	}{Message: Headline(err)}
	var e *Error
	if errors.As(err, &e) {
		data.Kind = e.Kind
		if !e.Kind.UserCorrectable() {
			data.Details = e.Details()
		}
	}
	var buf bytes.Buffer
	_ = errorCardTmpl.Execute(&buf, data)
	return template.HTML(buf.String())
}

// Render picks the result or error fragment for a pipeline outcome.
func Render(p Prediction, err error) template.HTML {
	if err != nil {
		return RenderError(err)
	}
	return RenderResult(p.Formatted)
}

// Headline returns the user-facing message for err without the diagnostic.
func Headline(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Kind == ErrFeatureConstruction && e.Err != nil {
			return e.Message + ":"
		}
		return e.Message
	}
	return err.Error()
}

// UserMessage returns the full text shown to the user for err. Feature and
// prediction failures carry their diagnostic after the headline.
func UserMessage(err error) string {
	msg := Headline(err)
	var e *Error
	if errors.As(err, &e) && !e.Kind.UserCorrectable() {
		if d := e.Details(); d != "" {
			msg += " " + d
		}
	}
	return msg
}

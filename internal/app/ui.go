package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"yashubustudio/tasador/estimator"
)

const logDebounceInterval = 150 * time.Millisecond

type uiState struct {
	service *estimator.Service
	logger  *zap.Logger

	w      fyne.Window
	inputs []*fieldInput

	resultTitle  *widget.Label
	resultValue  *widget.Label
	resultNote   *widget.Label
	errorLabel   *widget.Label
	status       *widget.Label
	progress     *widget.ProgressBar
	log          *widget.Entry
	statusBind   binding.String
	progressBind binding.Float
	logBind      binding.String
	logLines     []string
	logMu        sync.Mutex
	logUpdateCh  chan struct{}
	logDone      chan struct{}
	logStopped   chan struct{}
	logStopOnce  sync.Once

	predictBtn *widget.Button
	clearBtn   *widget.Button
	loadBtn    *widget.Button
	exportBtn  *widget.Button

	batchHeader  []string
	batchResults []estimator.BatchResult
}

func buildUI(a fyne.App, svc *estimator.Service, logger *zap.Logger) *uiState {
	u := &uiState{service: svc, logger: logger}
	u.w = a.NewWindow(estimator.TitleText)

	u.statusBind = binding.NewString()
	_ = u.statusBind.Set("Listo")
	u.progressBind = binding.NewFloat()
	u.logBind = binding.NewString()
	u.startLogUpdater()

	schema := svc.Schema()
	form := &widget.Form{}
	for _, spec := range schema.Fields {
		in := newFieldInput(spec)
		u.inputs = append(u.inputs, in)
		form.Append(spec.Label, in.object())
	}

	u.resultTitle = widget.NewLabelWithStyle("Precio estimado (ARS)", fyne.TextAlignCenter, fyne.TextStyle{})
	u.resultValue = widget.NewLabelWithStyle("", fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
	u.resultValue.SizeName = theme.SizeNameHeadingText
	u.resultValue.Importance = widget.SuccessImportance
	u.resultNote = widget.NewLabelWithStyle("Estimación basada en los datos ingresados.", fyne.TextAlignCenter, fyne.TextStyle{Italic: true})
	u.errorLabel = widget.NewLabelWithStyle("", fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
	u.errorLabel.Importance = widget.DangerImportance
	u.errorLabel.Wrapping = fyne.TextWrapWord
	u.clearResult()

	u.status = widget.NewLabelWithData(u.statusBind)
	u.progress = widget.NewProgressBarWithData(u.progressBind)
	u.progress.Hide()
	u.log = widget.NewEntryWithData(u.logBind)
	u.log.MultiLine = true
	u.log.Wrapping = fyne.TextWrapWord
	u.log.SetPlaceHolder("Registro")
	u.log.Disable()

	u.predictBtn = widget.NewButtonWithIcon("Predecir", theme.ConfirmIcon(), func() { u.onPredict() })
	u.predictBtn.Importance = widget.HighImportance
	u.clearBtn = widget.NewButtonWithIcon("Limpiar", theme.ContentClearIcon(), func() { u.onClear() })
	u.loadBtn = widget.NewButtonWithIcon("Cargar CSV", theme.FolderOpenIcon(), func() { u.onLoadFile() })
	u.exportBtn = widget.NewButtonWithIcon("Exportar CSV", theme.DocumentSaveIcon(), func() { u.onExport() })
	u.exportBtn.Disable()

	inputsCol := container.NewVBox(
		widget.NewLabelWithStyle(estimator.TitleText, fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		wrapped(estimator.InputsText),
		form,
	)

	resultCol := container.NewVBox(
		widget.NewLabelWithStyle("Resultado", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		wrapped(estimator.ResultText),
		container.NewGridWithColumns(2, u.predictBtn, u.clearBtn),
		widget.NewSeparator(),
		u.resultTitle,
		u.resultValue,
		u.resultNote,
		u.errorLabel,
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Lote", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		container.NewGridWithColumns(2, u.loadBtn, u.exportBtn),
		u.progress,
		u.status,
		container.NewGridWrap(fyne.NewSize(360, 180), u.log),
	)

	helpCol := container.NewVBox(
		widget.NewLabelWithStyle("Ayuda & Ejemplos", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		widget.NewLabel("Reglas:"),
	)
	for _, rule := range schema.RuleSummaries() {
		helpCol.Add(widget.NewLabel("• " + rule))
	}
	helpCol.Add(widget.NewSeparator())
	helpCol.Add(widget.NewLabelWithStyle("Ejemplos rápidos", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}))
	helpCol.Add(wrapped(estimator.ExampleText))
	for _, ex := range estimator.ExamplesFor(estimator.NewValidator(schema)) {
		example := ex
		helpCol.Add(widget.NewButton(summarizeExample(example), func() { u.loadExample(example) }))
	}

	content := container.NewGridWithColumns(3,
		container.NewVScroll(inputsCol),
		container.NewVScroll(resultCol),
		container.NewVScroll(helpCol),
	)
	u.w.SetContent(content)
	u.w.Resize(fyne.NewSize(1180, 760))
	u.w.SetOnClosed(u.stopLogUpdater)
	return u
}

func wrapped(text string) *widget.Label {
	lbl := widget.NewLabel(text)
	lbl.Wrapping = fyne.TextWrapWord
	return lbl
}

func (u *uiState) rawInputs() estimator.RawInputs {
	raw := make(estimator.RawInputs, len(u.inputs))
	for i, in := range u.inputs {
		raw[i] = in.value()
	}
	return raw
}

func (u *uiState) onPredict() {
	raw := u.rawInputs()
	u.setBusy(true)
	go func() {
		defer u.setBusy(false)
		p, err := u.service.Predict(context.Background(), raw)
		fyne.Do(func() {
			if err != nil {
				u.showError(err)
				return
			}
			u.showResult(p)
		})
		if err != nil {
			u.appendLog(fmt.Sprintf("Error: %s", estimator.UserMessage(err)))
			return
		}
		u.appendLog(fmt.Sprintf("Predicción %s (%s)", p.Formatted, p.Elapsed.Round(time.Microsecond)))
	}()
}

func (u *uiState) onClear() {
	for _, in := range u.inputs {
		in.reset()
	}
	u.clearResult()
}

func (u *uiState) loadExample(raw estimator.RawInputs) {
	for i, in := range u.inputs {
		if i < len(raw) {
			in.set(raw[i])
		}
	}
	u.clearResult()
}

func (u *uiState) showResult(p estimator.Prediction) {
	u.errorLabel.SetText("")
	u.errorLabel.Hide()
	u.resultValue.SetText(p.Formatted)
	u.resultTitle.Show()
	u.resultValue.Show()
	u.resultNote.Show()
}

func (u *uiState) showError(err error) {
	u.resultTitle.Hide()
	u.resultValue.Hide()
	u.resultNote.Hide()
	msg := "⚠ " + estimator.Headline(err)
	if kind := estimator.KindOf(err); !kind.UserCorrectable() {
		var e *estimator.Error
		if errors.As(err, &e) && e.Details() != "" {
			msg += "\n" + e.Details()
		}
	}
	u.errorLabel.SetText(msg)
	u.errorLabel.Show()
}

func (u *uiState) clearResult() {
	u.resultTitle.Hide()
	u.resultValue.SetText("")
	u.resultValue.Hide()
	u.resultNote.Hide()
	u.errorLabel.SetText("")
	u.errorLabel.Hide()
}

func (u *uiState) setBusy(b bool) {
	fyne.Do(func() {
		if b {
			u.predictBtn.Disable()
			u.loadBtn.Disable()
			u.exportBtn.Disable()
		} else {
			u.predictBtn.Enable()
			u.loadBtn.Enable()
			if len(u.batchResults) > 0 {
				u.exportBtn.Enable()
			}
		}
	})
}

func (u *uiState) onLoadFile() {
	fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil || rc == nil {
			return
		}
		path := rc.URI().Path()
		_ = rc.Close()
		u.runBatch(path)
	}, u.w)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".csv", ".tsv"}))
	fd.Show()
}

func (u *uiState) runBatch(path string) {
	header, rows, err := estimator.ParseInputRows(path, u.service.Schema(), estimator.InputParseOptions{})
	if err != nil {
		dialog.ShowError(err, u.w)
		u.appendLog(fmt.Sprintf("Error de lectura: %v", err))
		return
	}
	if len(rows) == 0 {
		dialog.ShowInformation("Información", "El archivo no contiene filas", u.w)
		return
	}
	total := len(rows)
	u.progress.Min = 0
	u.progress.Max = float64(total)
	_ = u.progressBind.Set(0)
	u.progress.Show()
	u.setStatus("Procesando...")
	u.setBusy(true)
	u.appendLog(fmt.Sprintf("Lote iniciado: %s (%d filas)", filepath.Base(path), total))
	start := time.Now()

	go func() {
		results, err := u.service.PredictAll(context.Background(), rows, func(done, total int) {
			_ = u.progressBind.Set(float64(done))
			u.setStatus(fmt.Sprintf("Procesando %d/%d", done, total))
		})
		fyne.Do(func() {
			u.progress.Hide()
			if err == nil {
				u.batchHeader = header
				u.batchResults = results
			}
		})
		u.setBusy(false)
		if err != nil {
			fyne.Do(func() { dialog.ShowError(err, u.w) })
			u.setStatus("Error")
			u.appendLog(fmt.Sprintf("Error: %v", err))
			return
		}
		failed := estimator.Failed(results)
		elapsed := time.Since(start).Seconds()
		u.setStatus(fmt.Sprintf("Completado %d filas, %d con error (%.1fs)", len(results), failed, elapsed))
		u.appendLog(fmt.Sprintf("Lote completado: %d filas, %d con error (%.1fs)", len(results), failed, elapsed))
		if failed > 0 {
			u.logger.Warn("batch rows failed", zap.String("file", path), zap.Int("failed", failed))
		}
	}()
}

func (u *uiState) onExport() {
	if len(u.batchResults) == 0 {
		dialog.ShowInformation("Información", "No hay resultados para exportar", u.w)
		return
	}
	header, results := u.batchHeader, u.batchResults
	fd := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
		if err != nil || uc == nil {
			return
		}
		defer uc.Close()
		if err := estimator.WriteResultCSV(uc, header, results); err != nil {
			dialog.ShowError(err, u.w)
			return
		}
		u.appendLog(fmt.Sprintf("CSV exportado (%d filas)", len(results)))
	}, u.w)
	fd.SetFileName("resultado.csv")
	fd.Show()
}

func (u *uiState) setStatus(text string) {
	_ = u.statusBind.Set(text)
}

func (u *uiState) appendLog(msg string) {
	now := time.Now().Format("15:04:05")
	line := fmt.Sprintf("[%s] %s", now, msg)

	u.logMu.Lock()
	u.logLines = append(u.logLines, line)
	if len(u.logLines) > 200 {
		u.logLines = u.logLines[len(u.logLines)-200:]
	}
	u.logMu.Unlock()

	if u.logUpdateCh == nil {
		u.flushLog()
		return
	}
	select {
	case u.logUpdateCh <- struct{}{}:
	default:
	}
}

func (u *uiState) startLogUpdater() {
	if u.logUpdateCh != nil {
		return
	}
	u.logUpdateCh = make(chan struct{}, 1)
	u.logDone = make(chan struct{})
	u.logStopped = make(chan struct{})
	go u.logUpdateLoop()
}

// stopLogUpdater ends the update loop after a final flush. Safe to call
// more than once.
func (u *uiState) stopLogUpdater() {
	if u.logDone == nil {
		return
	}
	u.logStopOnce.Do(func() {
		close(u.logDone)
		<-u.logStopped
	})
}

// logUpdateLoop coalesces bursts of log lines into one binding update.
func (u *uiState) logUpdateLoop() {
	defer close(u.logStopped)
	timer := time.NewTimer(logDebounceInterval)
	if !timer.Stop() {
		<-timer.C
	}
	for {
		select {
		case <-u.logUpdateCh:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(logDebounceInterval)
		case <-timer.C:
			u.flushLog()
		case <-u.logDone:
			timer.Stop()
			u.flushLog()
			return
		}
	}
}

func (u *uiState) flushLog() {
	u.logMu.Lock()
	text := strings.Join(u.logLines, "\n")
	u.logMu.Unlock()
	_ = u.logBind.Set(text)
}

func summarizeExample(raw estimator.RawInputs) string {
	parts := make([]string, 0, len(raw))
	for _, v := range raw {
		switch x := v.(type) {
		case float64:
			parts = append(parts, formatNumber(x))
		case string:
			parts = append(parts, x)
		}
	}
	return strings.Join(parts, " · ")
}

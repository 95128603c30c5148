package app

import (
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/widget"

	"yashubustudio/tasador/estimator"
)

// fieldInput is the widget bound to one schema field.
type fieldInput struct {
	spec estimator.FieldSpec

	entry      *widget.Entry
	slider     *widget.Slider
	sliderBind binding.Float
	choice     *widget.Select
}

func newFieldInput(spec estimator.FieldSpec) *fieldInput {
	f := &fieldInput{spec: spec}
	switch spec.Kind {
	case estimator.KindSlider:
		f.sliderBind = binding.NewFloat()
		f.slider = widget.NewSliderWithData(deref(spec.Min), deref(spec.Max), f.sliderBind)
		if spec.Step != nil {
			f.slider.Step = *spec.Step
		}
	case estimator.KindDropdown:
		f.choice = widget.NewSelect(spec.Choices, nil)
		f.choice.PlaceHolder = "(seleccionar)"
	default:
		f.entry = widget.NewEntry()
		if spec.Min != nil {
			f.entry.SetPlaceHolder("≥ " + formatNumber(*spec.Min))
		}
	}
	f.reset()
	return f
}

// object returns the canvas object placed in the form.
func (f *fieldInput) object() fyne.CanvasObject {
	if f.slider != nil {
		value := widget.NewLabelWithData(binding.FloatToStringWithFormat(f.sliderBind, "%.0f"))
		return container.NewBorder(nil, nil, nil, value, f.slider)
	}
	if f.choice != nil {
		return f.choice
	}
	return f.entry
}

// value returns the raw value handed to the validator.
func (f *fieldInput) value() any {
	switch {
	case f.slider != nil:
		v, _ := f.sliderBind.Get()
		return v
	case f.choice != nil:
		return f.choice.Selected
	default:
		return f.entry.Text
	}
}

func (f *fieldInput) set(v any) {
	switch {
	case f.slider != nil:
		if x, ok := v.(float64); ok {
			_ = f.sliderBind.Set(x)
		}
	case f.choice != nil:
		if s, ok := v.(string); ok {
			f.choice.SetSelected(s)
		} else {
			f.choice.ClearSelected()
		}
	default:
		switch x := v.(type) {
		case float64:
			f.entry.SetText(formatNumber(x))
		case string:
			f.entry.SetText(x)
		default:
			f.entry.SetText("")
		}
	}
}

func (f *fieldInput) reset() {
	f.set(f.spec.Default)
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

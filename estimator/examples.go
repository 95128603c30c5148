package estimator

// Examples are ready-made inputs shown next to the form.
var Examples = []RawInputs{
	{60.0, 50.0, 2.0, 1.0, 1.0, "Departamento", "Capital Federal", "Palermo"},
	{85.0, 75.0, 3.0, 2.0, 2.0, "Casa", "Bs.As. G.B.A. Zona Norte", "San Isidro"},
	{120.0, 100.0, 4.0, 3.0, 3.0, "PH", "Bs.As. G.B.A. Zona Sur", "Lanús"},
}

// ExamplesFor returns the examples every value of which the schema accepts.
func ExamplesFor(v *Validator) []RawInputs {
	var out []RawInputs
	for _, ex := range Examples {
		if _, err := v.Validate(ex); err == nil {
			out = append(out, append(RawInputs(nil), ex...))
		}
	}
	return out
}

// Texts shared by the web form and the desktop window.
const (
	TitleText   = "Predicción de precio de propiedad"
	InputsText  = "Completa los campos con las características de la propiedad. Se validan valores y se generan las variables internas que el modelo espera."
	ResultText  = "Presiona Predecir para calcular el precio estimado. Usa Limpiar para resetear todos los campos."
	ExampleText = "Carga un ejemplo y presiona Predecir."
)

package solver

import (
	"encoding/json"
	"fmt"

	"challenge-solver/internal/domain"
)

// instructionPrompt mandates the strict-JSON reply contract: use only
// the supplied data, answer with {reasoning, solution}, null when the
// data is insufficient, and round the final value to 10 decimal places.
const instructionPrompt = `Eres un asistente experto en resolver problemas de razonamiento lógico y matemático.
Tu objetivo es analizar el enunciado del problema y responder directamente lo que se pregunta, utilizando solo los datos proporcionados en la sección de contexto (planetas, personajes y Pokémon).

Tu salida DEBE ser un objeto JSON válido con este formato exacto:
{
  "reasoning": "explicación paso a paso de cómo llegaste al resultado final",
  "solution": número
}

Importante:
- NO realices suposiciones ni cálculos que no estén justificados por la pregunta.
- Asegúrate de que el número en "solution" sea exactamente la respuesta final que se solicita en el problema, redondeada a 10 decimales.
- Si el problema pregunta por el peso de un Pokémon, responde con ese valor directamente. Si pregunta por un cálculo, haz solo ese cálculo.
- Si no puedes responder por falta de datos, explica por qué y devuelve null en "solution".
- No incluyas ningún texto fuera del JSON.`

// buildMessages assembles the completion conversation: the instruction
// turn plus the problem text with the serialized reference data.
func buildMessages(problem string, data *domain.ReferenceData) ([]domain.Message, error) {
	planets, err := json.Marshal(data.Planets)
	if err != nil {
		return nil, err
	}
	characters, err := json.Marshal(data.Characters)
	if err != nil {
		return nil, err
	}
	creatures, err := json.Marshal(data.Creatures)
	if err != nil {
		return nil, err
	}

	user := fmt.Sprintf(`Problema: %s

Datos disponibles:
Planetas: %s
Personajes: %s
Pokémon: %s

Por favor, analiza el problema y proporciona la solución numérica precisa usando los datos proporcionados.`,
		problem, planets, characters, creatures)

	return []domain.Message{
		{Role: domain.RoleDeveloper, Content: instructionPrompt},
		{Role: domain.RoleUser, Content: user},
	}, nil
}

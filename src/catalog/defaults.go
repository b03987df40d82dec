package catalog

import "tracking_ivr/src/errs"

// Default is the built-in Spanish catalog
func Default() *Catalog {
	return &Catalog{
		Prompts: map[string]string{
			PromptWelcome:          "Bienvenido al servicio de seguimiento. Para consultar un expediente presione 1 o diga seguimiento. Para cotizar un servicio presione 2 o diga cotización.",
			PromptRecordRequest:    "Por favor ingrese o diga su número de expediente, seguido de la tecla gato.",
			PromptMenuIntro:        "Expediente {record}, estado {status}.",
			PromptMenuOption:       "Para {label}, presione {key}.",
			PromptTopicFollowUp:    "Para volver al menú presione cualquier tecla o diga menú. Para consultar otro expediente diga nuevo. Para hablar con un asesor diga asesor. Para terminar diga adiós.",
			PromptTopicGeneral:     "Servicio de {service}, a nombre de {client}. {description}",
			PromptTopicCosts:       "El costo total del servicio es de {total} {currency}. Se han pagado {paid} y el saldo pendiente es de {balance}.",
			PromptTopicSchedule:    "Su servicio fue solicitado a las {requested}. La unidad fue asignada a las {assigned} y su llegada estimada es a las {arrival}.",
			PromptTopicLocation:    "La unidad se encuentra en {address}. {reference}",
			PromptTopicUnit:        "La unidad asignada es la número {number}, {model}, con placas {plate}. El operador es {driver}.",
			PromptAgentTransfer:    "En un momento le comunicamos con un asesor.",
			PromptCallback:         "En este momento no hay asesores disponibles. Un asesor le devolverá la llamada a la brevedad.",
			PromptGoodbye:          "Gracias por llamar. Hasta luego.",
			PromptQuoteOrigin:      "Después del tono, diga las coordenadas del punto de origen, por ejemplo diecinueve punto cuatro coma menos noventa y nueve punto uno.",
			PromptQuoteDestination: "Después del tono, diga las coordenadas del punto de destino.",
			PromptQuoteVehicle:     "Después del tono, diga la marca, el modelo y el año del vehículo.",
			PromptQuoteHold:        "Un momento por favor, estamos procesando su información.",
			PromptQuoteRetry:       "No pudimos entender su respuesta.",
			PromptQuoteResult:      "El costo estimado del servicio es de {amount} {currency}, para una distancia de {distance} kilómetros.",
			PromptQuoteDefault:     "No fue posible calcular el costo exacto. La tarifa base del servicio es de {amount} {currency}.",
			PromptQuoteFollowUp:    "Para hablar con un asesor diga asesor. Para terminar diga adiós. Para volver al inicio diga cualquier otra cosa.",
		},
		StatusLabels: map[string]string{
			"to_contact":  "por contactar",
			"in_progress": "en proceso",
			"concluded":   "concluido",
			"cancelled":   "cancelado",
			"dead_run":    "servicio en falso",
			"unknown":     "sin estado",
		},
		MenuLabels: map[string]string{
			"general":    "información general",
			"costs":      "costos",
			"schedule":   "horarios",
			"location":   "la ubicación de la unidad",
			"unit":       "los datos de la unidad",
			"new_record": "consultar otro expediente",
			"agent":      "hablar con un asesor",
		},
		ErrorMessages: map[errs.Kind]string{
			errs.RecordNotFound:     "No encontramos el expediente indicado.",
			errs.RecordIDInvalid:    "El número de expediente no es válido.",
			errs.SessionExpired:     "Su sesión ha expirado. Volvamos a empezar.",
			errs.SessionInvalid:     "No pudimos recuperar su consulta. Volvamos a empezar.",
			errs.InputInvalid:       "La opción seleccionada no es válida.",
			errs.InputTimeout:       "No recibimos ninguna respuesta.",
			errs.InputUnrecognized:  "No entendimos su respuesta.",
			errs.SystemError:        "Lo sentimos, ocurrió un error en el sistema.",
			errs.ServiceUnavailable: "Lo sentimos, el servicio no está disponible en este momento.",
			errs.DatabaseError:      "Lo sentimos, no pudimos consultar la información.",
			errs.NetworkError:       "Lo sentimos, tenemos problemas de comunicación.",
		},
		RetryBudgets: map[errs.Kind]int{
			errs.RecordNotFound:     3,
			errs.RecordIDInvalid:    3,
			errs.SessionExpired:     1,
			errs.SessionInvalid:     1,
			errs.InputInvalid:       2,
			errs.InputTimeout:       3,
			errs.InputUnrecognized:  3,
			errs.SystemError:        1,
			errs.ServiceUnavailable: 2,
			errs.DatabaseError:      1,
			errs.NetworkError:       2,
		},
		// Order matters: the first matching command wins.
		Commands: []Command{
			{Intent: "agent", Phrases: []string{"agente", "asesor", "operador", "hablar con una persona"}},
			{Intent: "new_record", Phrases: []string{"nuevo", "nueva", "otro expediente", "otra consulta"}},
			{Intent: "hangup", Phrases: []string{"colgar", "adios", "terminar", "salir"}},
			{Intent: "cost_topic", Phrases: []string{"costo", "costos", "precio", "precios", "cuanto", "pago", "cobro"}},
			{Intent: "schedule_topic", Phrases: []string{"horario", "horarios", "hora", "tiempo", "tiempos", "llegada"}},
			{Intent: "location_topic", Phrases: []string{"ubicacion", "donde", "localizacion"}},
			{Intent: "unit_topic", Phrases: []string{"unidad", "grua", "vehiculo", "placas"}},
			{Intent: "general_topic", Phrases: []string{"informacion", "general", "estado", "estatus", "datos"}},
			{Intent: "menu", Phrases: []string{"menu", "opciones"}},
			{Intent: "tracking", Phrases: []string{"seguimiento", "rastreo", "rastrear", "consultar"}},
			{Intent: "quotation", Phrases: []string{"cotizacion", "cotizar", "presupuesto"}},
		},
		DenyList: []string{
			"no",
			"nada",
			"ninguno",
			"ninguna",
			"no se",
			"no gracias",
			"ninguna de las anteriores",
		},
		Conversation: []ConversationRule{
			{Category: "agent", Keywords: []string{"asesor", "agente", "operador", "persona"}},
			{Category: "new_record", Keywords: []string{"nuevo", "nueva", "otro expediente", "otra consulta"}},
			{Category: "hangup", Keywords: []string{"adios", "colgar", "terminar", "es todo", "nada mas", "hasta luego"}},
		},
	}
}

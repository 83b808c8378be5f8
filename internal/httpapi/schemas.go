package httpapi

import "github.com/vetdesk/vetdesk/internal/schema"

// Request body schemas, one per write route.
var (
	authenticateSchema = schema.MustCompile(`{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["email", "password"],
		"properties": {
			"email": {"type": "string", "minLength": 1},
			"password": {"type": "string", "minLength": 1}
		}
	}`)

	registerSchema = schema.MustCompile(`{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["firstName", "lastName", "email", "password", "confirmPassword", "acceptTerms"],
		"properties": {
			"firstName": {"type": "string", "minLength": 1},
			"lastName": {"type": "string", "minLength": 1},
			"avatar": {"type": "string"},
			"telephone": {"type": "string"},
			"cellphone": {"type": "string"},
			"street": {"type": "string"},
			"streetNumber": {"type": "string"},
			"postalCode": {"type": "string"},
			"birthday": {"type": "string"},
			"cpf": {"type": "string"},
			"email": {"type": "string", "format": "email"},
			"password": {"type": "string", "minLength": 6},
			"confirmPassword": {"type": "string", "minLength": 6},
			"acceptTerms": {"type": "boolean", "enum": [true]}
		}
	}`)

	createAccountSchema = schema.MustCompile(`{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["firstName", "lastName", "email", "password", "role"],
		"properties": {
			"firstName": {"type": "string", "minLength": 1},
			"lastName": {"type": "string", "minLength": 1},
			"avatar": {"type": "string"},
			"telephone": {"type": "string"},
			"cellphone": {"type": "string"},
			"street": {"type": "string"},
			"streetNumber": {"type": "string"},
			"postalCode": {"type": "string"},
			"birthday": {"type": "string"},
			"cpf": {"type": "string"},
			"email": {"type": "string", "format": "email"},
			"password": {"type": "string", "minLength": 6},
			"role": {"type": "string", "enum": ["Admin", "Vet", "Nurse", "Tutor"]}
		}
	}`)

	updateAccountSchema = schema.MustCompile(`{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"properties": {
			"firstName": {"type": "string", "minLength": 1},
			"lastName": {"type": "string", "minLength": 1},
			"avatar": {"type": "string"},
			"telephone": {"type": "string"},
			"cellphone": {"type": "string"},
			"street": {"type": "string"},
			"streetNumber": {"type": "string"},
			"postalCode": {"type": "string"},
			"birthday": {"type": "string"},
			"cpf": {"type": "string"},
			"email": {"type": "string", "format": "email"},
			"password": {"type": "string", "minLength": 6},
			"role": {"type": "string", "enum": ["Admin", "Vet", "Nurse", "Tutor"]}
		}
	}`)

	verifyEmailSchema = schema.MustCompile(`{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["token"],
		"properties": {"token": {"type": "string", "minLength": 1}}
	}`)

	forgotPasswordSchema = schema.MustCompile(`{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["email"],
		"properties": {"email": {"type": "string", "format": "email"}}
	}`)

	validateResetTokenSchema = verifyEmailSchema

	resetPasswordSchema = schema.MustCompile(`{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["token", "password", "confirmPassword"],
		"properties": {
			"token": {"type": "string", "minLength": 1},
			"password": {"type": "string", "minLength": 6},
			"confirmPassword": {"type": "string", "minLength": 6}
		}
	}`)

	revokeTokenSchema = schema.MustCompile(`{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"properties": {"token": {"type": "string"}}
	}`)

	createPetSchema = schema.MustCompile(`{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["name", "type", "breed", "color"],
		"properties": {
			"avatar": {"type": "string"},
			"name": {"type": "string", "minLength": 1},
			"type": {"type": "string", "minLength": 1},
			"breed": {"type": "string", "minLength": 1},
			"color": {"type": "string", "minLength": 1},
			"status": {"type": "string"},
			"tutorId": {"type": "string"},
			"qrCode": {"type": "string"}
		}
	}`)

	updatePetSchema = schema.MustCompile(`{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"properties": {
			"avatar": {"type": "string"},
			"name": {"type": "string", "minLength": 1},
			"type": {"type": "string", "minLength": 1},
			"breed": {"type": "string", "minLength": 1},
			"color": {"type": "string", "minLength": 1},
			"status": {"type": "string"},
			"tutorId": {"type": "string"},
			"qrCode": {"type": "string"}
		}
	}`)

	createTreatmentSchema = schema.MustCompile(`{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["petId", "petName"],
		"properties": {
			"status": {"type": "string"},
			"enterDate": {"type": "string"},
			"dischargeDate": {"type": "string"},
			"medications": {"type": "array"},
			"food": {"type": "array"},
			"conclusiveReport": {"type": "string"},
			"conclusiveReportShort": {"type": "string"},
			"dischargeCare": {"type": "string"},
			"clinicEvo": {"type": "object"},
			"clinicEvoResume": {"type": "integer"},
			"petId": {"type": "string", "minLength": 1},
			"petName": {"type": "string", "minLength": 1},
			"vetId": {"type": "string"},
			"vetName": {"type": "string"}
		}
	}`)

	updateTreatmentSchema = schema.MustCompile(`{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"properties": {
			"status": {"type": "string"},
			"enterDate": {"type": "string"},
			"dischargeDate": {"type": "string"},
			"medications": {"type": "array"},
			"food": {"type": "array"},
			"conclusiveReport": {"type": "string"},
			"conclusiveReportShort": {"type": "string"},
			"dischargeCare": {"type": "string"},
			"clinicEvo": {"type": "object"},
			"clinicEvoResume": {"type": "integer"}
		}
	}`)
)

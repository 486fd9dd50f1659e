package models

// FieldKey names an input field of the onboarding forms.
type FieldKey string

const (
	FieldPhone           FieldKey = "phone"
	FieldBirthDate       FieldKey = "birthDate"
	FieldGender          FieldKey = "gender"
	FieldNationalID      FieldKey = "nationalId"
	FieldStateCode       FieldKey = "stateCode"
	FieldCity            FieldKey = "city"
	FieldName            FieldKey = "name"
	FieldUsername        FieldKey = "username"
	FieldEmail           FieldKey = "email"
	FieldPassword        FieldKey = "password"
	FieldConfirmPassword FieldKey = "confirmPassword"
)

// RegistrationFields lists the registration form fields in display order.
// Submit reports the first failing field in this order.
var RegistrationFields = []FieldKey{
	FieldName,
	FieldUsername,
	FieldEmail,
	FieldPassword,
	FieldConfirmPassword,
}

// ProfileFields lists the profile completion fields in display order.
var ProfileFields = []FieldKey{
	FieldPhone,
	FieldBirthDate,
	FieldGender,
	FieldNationalID,
	FieldStateCode,
	FieldCity,
}

// IsValid checks if the key is one of the supported fields.
func (k FieldKey) IsValid() bool {
	switch k {
	case FieldPhone, FieldBirthDate, FieldGender, FieldNationalID, FieldStateCode, FieldCity,
		FieldName, FieldUsername, FieldEmail, FieldPassword, FieldConfirmPassword:
		return true
	}
	return false
}

func (k FieldKey) String() string {
	return string(k)
}

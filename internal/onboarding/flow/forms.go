package flow

import (
	"viacarona/internal/gateway"
	"viacarona/internal/onboarding/models"
	"viacarona/internal/onboarding/validation"
)

// RegistrationForm is the raw input of the registration view.
type RegistrationForm struct {
	Name            string
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

func (f RegistrationForm) values() map[models.FieldKey]string {
	return map[models.FieldKey]string{
		models.FieldName:            f.Name,
		models.FieldUsername:        f.Username,
		models.FieldEmail:           f.Email,
		models.FieldPassword:        f.Password,
		models.FieldConfirmPassword: f.ConfirmPassword,
	}
}

// ProfileForm is the raw input of the profile completion view. BirthDate is
// masked DD/MM/YYYY; Phone and NationalID may carry formatting.
type ProfileForm struct {
	Phone      string
	BirthDate  string
	Gender     string
	NationalID string
	StateCode  string
	City       string
	// Photo is the picked picture, if any.
	Photo *gateway.Photo
	// PhotoURI identifies where Photo came from. A photo whose URI is the
	// federated picture URL is not uploaded again.
	PhotoURI string
}

func (f ProfileForm) values() map[models.FieldKey]string {
	return map[models.FieldKey]string{
		models.FieldPhone:      f.Phone,
		models.FieldBirthDate:  f.BirthDate,
		models.FieldGender:     f.Gender,
		models.FieldNationalID: f.NationalID,
		models.FieldStateCode:  f.StateCode,
		models.FieldCity:       f.City,
	}
}

// checkForm runs values through the form reducer and reports the first
// failing field in display order.
func checkForm(values map[models.FieldKey]string, keys []models.FieldKey, vctx validation.Context) (models.FieldKey, string, bool) {
	st := validation.NewState()
	for _, k := range keys {
		st = st.Apply(validation.Event{Kind: validation.EventChange, Field: k, Value: values[k]}, vctx)
	}
	st, first, ok := st.Submit(keys, vctx)
	if ok {
		return "", "", true
	}
	return first, st.Field(first).Error, false
}

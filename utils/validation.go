package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/karthikosa11/smartcal-nutrition-tracker/models"
)

// validate reads the same `binding` tags gin checks in ShouldBindJSON, so
// services enforce the rules for callers that bypass the router.
var validate = func() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	return v
}()

// Client-facing messages, keyed by "Field.tag" first and then by "Field".
var validationMessages = map[string]string{
	"Username.required":  "Username, email, and password are required",
	"Email.required":     "Username, email, and password are required",
	"Password.required":  "Username, email, and password are required",
	"Username.min":       "Username cannot be empty",
	"Email.email":        "Invalid email address",
	"DailyCalorieTarget": "Daily calorie target must be between 1000 and 5000",
	"Date.required":      "Date is required",
	"MealType":           "Meal type must be one of Breakfast, Lunch, Dinner, Snack",
	"FoodItems":          "At least one food item is required",
	"Name":               "Food item name is required",
	"Calories":           "Nutrition values must be between 0 and 100000",
	"Protein":            "Nutrition values must be between 0 and 100000",
	"Carbs":              "Nutrition values must be between 0 and 100000",
	"Fat":                "Nutrition values must be between 0 and 100000",
	"TotalCalories":      "Total calories must be a non-negative number no larger than 2147483647",
}

// ValidationMessage turns the first failed binding rule in err into the
// message shown to the caller. ok is false for other errors.
func ValidationMessage(err error) (msg string, ok bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "", false
	}
	fe := verrs[0]
	if m, found := validationMessages[fe.StructField()+"."+fe.Tag()]; found {
		return m, true
	}
	if m, found := validationMessages[fe.StructField()]; found {
		return m, true
	}
	name := fe.Field()
	if name != "" {
		name = strings.ToLower(name[:1]) + name[1:]
	}
	return fmt.Sprintf("Invalid value for %s", name), true
}

// Validate checks s against its binding tags and reports failures as
// models.ValidationError.
func Validate(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	if msg, ok := ValidationMessage(err); ok {
		return models.Invalid("%s", msg)
	}
	return err
}

package core

// catalog.go declares the target schema: the sixteen personnel fields, their
// cleaning rules, display labels, descriptions and the header variations the
// mapping engine recognises.

// Fields lists every target field in catalog order.
var Fields = []Field{
	FieldEmployeeID,
	FieldFirstName,
	FieldLastName,
	FieldEmail,
	FieldStartDate,
	FieldDepartment,
	FieldDivision,
	FieldPosition,
	FieldRegion,
	FieldMobileNumber,
	FieldWorkPhoneNumber,
	FieldGender,
	FieldCountry,
	FieldCity,
	FieldDateOfBirth,
	FieldLanguage,
}

// fieldOrder gives each field its catalog position.
var fieldOrder = func() map[Field]int {
	m := make(map[Field]int, len(Fields))
	for i, f := range Fields {
		m[f] = i
	}
	return m
}()

// IsField reports whether f is a catalog field.
func IsField(f Field) bool {
	_, ok := fieldOrder[f]
	return ok
}

// GenderOptions is the closed value set for gender.
var GenderOptions = []string{"male", "female", "non-binary", "other", "prefer not to say"}

// DefaultAllowedEmailDomains are accepted when no domain list is configured.
var DefaultAllowedEmailDomains = []string{".com", ".org", ".net", ".io", ".co.za", ".nl"}

const (
	emailPattern    = `^[^\s@]+@[^\s@]+\.[^\s@]+$`
	languagePattern = `^[A-Za-z][A-Za-z \-]*$`
)

var textRule = CleaningRule{Type: TypeString, Trim: TrimNormalizeSpaces, Case: CaseNone}

// DefaultRules returns the rule catalog. Each call returns a fresh copy.
func DefaultRules() RuleSet {
	return RuleSet{
		FieldEmployeeID: {
			Type:         TypeID,
			Trim:         TrimBoth,
			Case:         CaseLower,
			Normalize:    NormalizeFlags{ToEmployeeID: true},
			ColumnHookID: HookStripSpaces,
			Unique:       &UniquePolicy{IgnoreCase: true, IgnoreNulls: true},
		},
		FieldFirstName: textRule,
		FieldLastName:  textRule,
		FieldEmail: {
			Type:   TypeEmail,
			Trim:   TrimBoth,
			Case:   CaseLower,
			Unique: &UniquePolicy{IgnoreCase: true, IgnoreNulls: true},
		},
		FieldStartDate:  {Type: TypeDate, Trim: TrimBoth, Case: CaseNone, Normalize: NormalizeFlags{ToISODate: true}},
		FieldDepartment: textRule,
		FieldDivision:   textRule,
		FieldPosition:   textRule,
		FieldRegion:     textRule,
		FieldMobileNumber: {
			Type:         TypePhone,
			Trim:         TrimBoth,
			Case:         CaseNone,
			Normalize:    NormalizeFlags{PhoneDigitsOnly: true},
			ColumnHookID: HookNormalizePhone,
		},
		FieldWorkPhoneNumber: {
			Type:         TypePhone,
			Trim:         TrimBoth,
			Case:         CaseNone,
			Normalize:    NormalizeFlags{PhoneDigitsOnly: true},
			ColumnHookID: HookNormalizePhone,
		},
		FieldGender: {
			Type:    TypeCategory,
			Trim:    TrimBoth,
			Case:    CaseLower,
			Options: append([]string(nil), GenderOptions...),
		},
		FieldCountry:     {Type: TypeCountry, Trim: TrimBoth, Case: CaseUpper, Normalize: NormalizeFlags{ToISO3: true}},
		FieldCity:        textRule,
		FieldDateOfBirth: {Type: TypeDate, Trim: TrimBoth, Case: CaseNone, Normalize: NormalizeFlags{ToISODate: true}},
		FieldLanguage:    {Type: TypeString, Trim: TrimNormalizeSpaces, Case: CaseNone, Regex: languagePattern},
	}
}

// FieldLabels are the human names used in messages and templates.
var FieldLabels = map[Field]string{
	FieldEmployeeID:      "Employee ID",
	FieldFirstName:       "First name",
	FieldLastName:        "Last name",
	FieldEmail:           "Email",
	FieldStartDate:       "Start date",
	FieldDepartment:      "Department",
	FieldDivision:        "Division",
	FieldPosition:        "Position",
	FieldRegion:          "Region",
	FieldMobileNumber:    "Mobile number",
	FieldWorkPhoneNumber: "Work phone number",
	FieldGender:          "Gender",
	FieldCountry:         "Country",
	FieldCity:            "City",
	FieldDateOfBirth:     "Date of birth",
	FieldLanguage:        "Language",
}

// FieldDescriptions explain each column in downloadable templates.
var FieldDescriptions = map[Field]string{
	FieldEmployeeID:      "ID of the employee. Needs to be unique, lowercase, and contain only letters and numbers.",
	FieldFirstName:       "First Name of the employee.",
	FieldLastName:        "Last Name of the employee.",
	FieldEmail:           "Email of the employee.",
	FieldStartDate:       "Start Date of the employee.",
	FieldDepartment:      "Department of the employee.",
	FieldDivision:        "Division of the employee.",
	FieldPosition:        "Position of the employee.",
	FieldRegion:          "Region of the employee.",
	FieldMobileNumber:    "Mobile Number of the employee.",
	FieldWorkPhoneNumber: "Work Phone Number of the employee.",
	FieldGender:          "Gender of the employee.",
	FieldCountry:         "Country of the employee.",
	FieldCity:            "City of the employee.",
	FieldDateOfBirth:     "Date of Birth of the employee.",
	FieldLanguage:        "Language of the employee.",
}

// FieldVariations are the header spellings recognised for each field.
// Later fields win when two fields declare the same spelling.
var FieldVariations = map[Field][]string{
	FieldEmployeeID: {
		"employeeid", "employee id", "employee", "id", "emp id",
		"empid", "staff id", "staffid", "empno", "emp number",
	},
	FieldFirstName: {
		"firstname", "first name", "first", "givenname", "given name",
		"given", "forename", "fore name",
	},
	FieldLastName: {
		"lastname", "last name", "last", "surname", "familyname",
		"family name", "family",
	},
	FieldEmail: {"email", "email address", "e-mail", "e mail", "mail", "emailaddr"},
	FieldStartDate: {
		"startdate", "start date", "start", "hiredate", "hire date",
		"hire", "employment date", "employmentdate",
	},
	FieldDepartment: {"department", "dept", "division", "div", "unit", "section"},
	FieldDivision:   {"division", "div", "unit", "section", "business unit", "businessunit"},
	FieldPosition: {
		"position", "jobtitle", "job title", "title", "role",
		"job", "job role", "jobrole",
	},
	FieldRegion: {"region", "area", "territory", "zone", "district"},
	FieldMobileNumber: {
		"phone number", "mobilenumber", "mobile number", "mobile", "cell",
		"cellphone", "cell phone", "cellphone number",
	},
	FieldWorkPhoneNumber: {
		"workphonenumber", "work phone number", "work phone", "workphone",
		"office phone", "officephone", "business phone",
	},
	FieldGender:  {"gender", "sex", "biological sex"},
	FieldCountry: {"country", "nation", "country code", "nationality"},
	FieldCity:    {"city", "town", "municipality", "locality"},
	FieldDateOfBirth: {
		"dateofbirth", "date of birth", "dob", "birthdate", "birth date",
		"birth", "born", "birth day",
	},
	FieldLanguage: {
		"language", "lang", "preferred language", "preferredlanguage",
		"primary language", "primarylanguage",
	},
}

// Label returns the display label for a field, falling back to its key.
func Label(f Field) string {
	if l, ok := FieldLabels[f]; ok {
		return l
	}
	return string(f)
}

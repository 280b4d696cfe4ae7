package entity

import "strings"

// BloodGroup es una de las 8 combinaciones ABO/Rh.
type BloodGroup string

const (
	BloodGroupAPos  BloodGroup = "A+"
	BloodGroupANeg  BloodGroup = "A-"
	BloodGroupBPos  BloodGroup = "B+"
	BloodGroupBNeg  BloodGroup = "B-"
	BloodGroupABPos BloodGroup = "AB+"
	BloodGroupABNeg BloodGroup = "AB-"
	BloodGroupOPos  BloodGroup = "O+"
	BloodGroupONeg  BloodGroup = "O-"
)

// BloodGroups lista los grupos en el orden en que se muestran en resúmenes.
var BloodGroups = []BloodGroup{
	BloodGroupAPos, BloodGroupANeg,
	BloodGroupBPos, BloodGroupBNeg,
	BloodGroupABPos, BloodGroupABNeg,
	BloodGroupOPos, BloodGroupONeg,
}

// ParseBloodGroup normaliza la entrada ("o+", " AB- ") y reporta si es un grupo válido.
func ParseBloodGroup(s string) (BloodGroup, bool) {
	g := BloodGroup(strings.ToUpper(strings.TrimSpace(s)))
	return g, g.Valid()
}

// Valid indica si el grupo pertenece a las 8 combinaciones conocidas.
func (g BloodGroup) Valid() bool {
	for _, v := range BloodGroups {
		if g == v {
			return true
		}
	}
	return false
}

func (g BloodGroup) String() string { return string(g) }

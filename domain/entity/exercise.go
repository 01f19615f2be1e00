package entity

// ExerciseID identifies one exercise
type ExerciseID string

const (
	ExerciseHelloKQL              ExerciseID = "hello-kql"
	ExerciseCounting101           ExerciseID = "counting-101"
	ExerciseProjectBasics         ExerciseID = "project-basics"
	ExerciseLimitYourself         ExerciseID = "limit-yourself"
	ExerciseDistinctPossibilities ExerciseID = "distinct-possibilities"
	ExerciseBruteForce101         ExerciseID = "brute-force-101"
	ExerciseTimeTraveler          ExerciseID = "time-traveler"
	ExerciseStringTheory          ExerciseID = "string-theory"
	ExercisePortScanner           ExerciseID = "port-scanner"
	ExerciseTheInsider            ExerciseID = "the-insider"
)

// AllExercises lists every exercise in catalog order
var AllExercises = []ExerciseID{
	ExerciseHelloKQL,
	ExerciseCounting101,
	ExerciseProjectBasics,
	ExerciseLimitYourself,
	ExerciseDistinctPossibilities,
	ExerciseBruteForce101,
	ExerciseTimeTraveler,
	ExerciseStringTheory,
	ExercisePortScanner,
	ExerciseTheInsider,
}

// ParseExerciseID returns the matching identifier and whether s names one
func ParseExerciseID(s string) (ExerciseID, bool) {
	for _, id := range AllExercises {
		if string(id) == s {
			return id, true
		}
	}
	return "", false
}

func (e ExerciseID) String() string {
	return string(e)
}

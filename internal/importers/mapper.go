package importers

import "strings"

// ExerciseMapping maps an imported exercise name onto an exercise the user
// already knows. New is true when no existing name matched and the import
// name is kept as written.
type ExerciseMapping struct {
	ImportName string
	MappedName string
	New        bool
}

// BuildExerciseMappings matches imported exercise names against existing
// names case-insensitively, so "bench press" in an export lands on the
// catalog's "Bench Press" and groups with it in statistics.
func BuildExerciseMappings(importNames, existing []string) []ExerciseMapping {
	lookup := make(map[string]string, len(existing))
	for _, name := range existing {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, dup := lookup[key]; !dup {
			lookup[key] = name
		}
	}

	mappings := make([]ExerciseMapping, len(importNames))
	for i, name := range importNames {
		mappings[i] = ExerciseMapping{ImportName: name, MappedName: name}
		if match, ok := lookup[strings.ToLower(strings.TrimSpace(name))]; ok {
			mappings[i].MappedName = match
		} else {
			mappings[i].New = true
		}
	}
	return mappings
}

// ApplyMappings rewrites the exercise names of pf's records in place.
func ApplyMappings(pf *ParsedFile, mappings []ExerciseMapping) {
	byName := make(map[string]string, len(mappings))
	for _, m := range mappings {
		byName[m.ImportName] = m.MappedName
	}
	for i := range pf.Records {
		if mapped, ok := byName[pf.Records[i].Exercise]; ok {
			pf.Records[i].Exercise = mapped
		}
	}
}

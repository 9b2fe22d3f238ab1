package utils

import (
	"encoding/json"
	"os"
)

func ReadJsonFile(filePath string) ([]byte, error) {
	return os.ReadFile(filePath)
}

// Read a fixture file and unmarshal it into value
func LoadJsonFile(filePath string, value interface{}) error {
	jsonBytes, err := ReadJsonFile(filePath)
	if err != nil {
		return err
	}
	return json.Unmarshal(jsonBytes, value)
}

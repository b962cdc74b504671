// Package config는 애플리케이션 설정을 관리하는 패키지입니다.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// 설정 디렉토리 경로
const configDir = "configs"

// Load는 서비스 설정 파일을 읽어 out 구조체로 디코딩합니다.
//
// CONFIG_PATH가 파일이면 그 파일을, 디렉토리이면 {dir}/{service}.yaml을 읽습니다.
// 지정되지 않으면 ./configs/{service}.yaml을 사용합니다.
// {SERVICE}_SECTION_KEY 형식의 환경 변수가 파일 값을 덮어씁니다.
func Load(serviceName string, out interface{}) error {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetEnvPrefix(strings.ToUpper(serviceName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = configDir
	}

	if info, err := os.Stat(configPath); err == nil && !info.IsDir() {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(serviceName)
		v.AddConfigPath(configPath)
		v.AddConfigPath(filepath.Join(configDir, "example"))
	}

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("설정 파일 로드 실패: %w", err)
	}

	decodeHook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.TextUnmarshallerHookFunc(),
	))
	if err := v.Unmarshal(out, decodeHook); err != nil {
		return fmt.Errorf("설정 디코딩 실패: %w", err)
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/sirupsen/logrus"
)

type YamlConf struct {
	Chain      string     `yaml:"chain"`
	DB         DB         `yaml:"db"`
	ShareRPC   ShareRPC   `yaml:"share_rpc"`
	Log        Log        `yaml:"log"`
	Indexer    Indexer    `yaml:"indexer"`
	Market     Market     `yaml:"market"`
	RPCService RPCService `yaml:"rpc_service"`
}

type DB struct {
	Path string `yaml:"path"`
}

type ShareRPC struct {
	Bitcoin Bitcoin `yaml:"bitcoin"`
}

type Bitcoin struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type Log struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

type Indexer struct {
	BaseUrl       string `yaml:"base_url"`
	MaxConcurrent int64  `yaml:"max_concurrent"`
	TimeoutSecond int    `yaml:"timeout_second"`
}

type Market struct {
	FeeAddress         string `yaml:"fee_address"`
	OwnershipTtlSecond int    `yaml:"ownership_ttl_second"`
	MetadataTtlSecond  int    `yaml:"metadata_ttl_second"`
	ContentTtlSecond   int    `yaml:"content_ttl_second"`
}

type RPCService struct {
	Addr    string `yaml:"addr"`
	Proxy   string `yaml:"proxy"`
	LogPath string `yaml:"log_path"`
}

func GetBaseDir() string {
	execPath, err := os.Executable()
	if err != nil {
		return "./."
	}
	execPath = filepath.Dir(execPath)
	return execPath
}

func InitConfig(configFile string) *YamlConf {
	if configFile == "" {
		for i, item := range os.Args {
			if item == "-env" {
				if i+1 < len(os.Args) {
					configFile = os.Args[i+1]
					break
				}
			}
		}
		if configFile == "" {
			configFile = "./.env"
		}
	}
	if !strings.HasPrefix(configFile, "/") {
		configFile = filepath.Join(GetBaseDir(), configFile)
	}

	fmt.Printf("config file: %s\n", configFile)

	cfg, err := LoadYamlConf(configFile)
	if err != nil {
		return nil
	}
	return cfg
}

func LoadYamlConf(cfgPath string) (*YamlConf, error) {
	confFile, err := os.Open(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cfg: %s, error: %s", cfgPath, err)
	}
	defer confFile.Close()

	ret := &YamlConf{}
	decoder := yaml.NewDecoder(confFile)
	err = decoder.Decode(ret)
	if err != nil {
		return nil, fmt.Errorf("failed to decode cfg: %s, error: %s", cfgPath, err)
	}

	_, err = logrus.ParseLevel(ret.Log.Level)
	if err != nil {
		ret.Log.Level = "info"
	}

	if ret.Log.Path == "" {
		ret.Log.Path = "log"
	}
	ret.Log.Path = filepath.FromSlash(ret.Log.Path)
	if ret.Log.Path[len(ret.Log.Path)-1] != filepath.Separator {
		ret.Log.Path += string(filepath.Separator)
	}

	if ret.DB.Path == "" {
		ret.DB.Path = "db"
	}
	ret.DB.Path = filepath.FromSlash(ret.DB.Path)
	if ret.DB.Path[len(ret.DB.Path)-1] != filepath.Separator {
		ret.DB.Path += string(filepath.Separator)
	}

	if ret.Indexer.MaxConcurrent <= 0 {
		ret.Indexer.MaxConcurrent = 5
	}
	if ret.Indexer.TimeoutSecond <= 0 {
		ret.Indexer.TimeoutSecond = 30
	}

	if ret.Market.OwnershipTtlSecond <= 0 {
		ret.Market.OwnershipTtlSecond = 30
	}
	if ret.Market.MetadataTtlSecond <= 0 {
		ret.Market.MetadataTtlSecond = 300
	}
	if ret.Market.ContentTtlSecond <= 0 {
		ret.Market.ContentTtlSecond = 86400
	}

	if ret.RPCService.Addr == "" {
		ret.RPCService.Addr = "0.0.0.0:80"
	}

	if ret.RPCService.Proxy == "" {
		ret.RPCService.Proxy = "/"
	}
	if ret.RPCService.Proxy[0] != '/' {
		ret.RPCService.Proxy = "/" + ret.RPCService.Proxy
	}

	if ret.RPCService.LogPath == "" {
		ret.RPCService.LogPath = "log"
	}

	return ret, nil
}

func (p *Market) OwnershipTtl() time.Duration {
	return time.Duration(p.OwnershipTtlSecond) * time.Second
}

func (p *Market) MetadataTtl() time.Duration {
	return time.Duration(p.MetadataTtlSecond) * time.Second
}

func (p *Market) ContentTtl() time.Duration {
	return time.Duration(p.ContentTtlSecond) * time.Second
}

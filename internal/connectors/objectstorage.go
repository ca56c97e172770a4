package connectors

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/tempoview/tempoview/internal/bridge"
	"github.com/tempoview/tempoview/internal/forms"
)

// Object storage provider discriminant values.
const (
	ProviderS3     = "s3"
	ProviderMinIO  = "minio"
	ProviderR2     = "r2"
	ProviderOSS    = "oss"
	ProviderCOS    = "cos"
	ProviderOBS    = "obs"
	ProviderQiniu  = "qiniu"
	ProviderUpyun  = "upyun"
	ProviderGitHub = "github"
	ProviderGitee  = "gitee"
	ProviderSMMS   = "smms"
	ProviderImgur  = "imgur"
	ProviderWebDAV = "webdav"
)

// storageDriverFamily keys the driver bag every provider funnels into. The
// backend resolves providers without a dedicated code path through the
// generic s3 bag, so the family name stays fixed.
const storageDriverFamily = "s3"

// StorageProviders lists every supported provider in display order.
var StorageProviders = []forms.Option{
	{Value: ProviderS3, Label: "Amazon S3"},
	{Value: ProviderMinIO, Label: "MinIO"},
	{Value: ProviderR2, Label: "Cloudflare R2"},
	{Value: ProviderOSS, Label: "Aliyun OSS"},
	{Value: ProviderCOS, Label: "Tencent COS"},
	{Value: ProviderOBS, Label: "Huawei OBS"},
	{Value: ProviderQiniu, Label: "Qiniu Kodo"},
	{Value: ProviderUpyun, Label: "Upyun USS"},
	{Value: ProviderGitHub, Label: "GitHub"},
	{Value: ProviderGitee, Label: "Gitee"},
	{Value: ProviderSMMS, Label: "SM.MS"},
	{Value: ProviderImgur, Label: "Imgur"},
	{Value: ProviderWebDAV, Label: "WebDAV"},
}

var _ Connector = (*ObjectStorageConnector)(nil)

// ObjectStorageConnector models object-storage and image-hosting providers.
// There is no host/port identity here; the provider field is the discriminant
// that gates every other field.
type ObjectStorageConnector struct {
	Base
}

// NewObjectStorageConnector constructs the connector. A nil invoker uses the
// process-wide bridge.
func NewObjectStorageConnector(invoker bridge.Invoker) *ObjectStorageConnector {
	c := &ObjectStorageConnector{}
	c.Base = NewBase(Meta{
		Type:        TypeObjectStorage,
		DisplayName: "Object Storage",
		Icon:        "bucket",
		DefaultPort: 0,
	}, invoker, c.FormSections, c.ToConnectionConfig)
	return c
}

// storageField declares one provider-specific field.
type storageField struct {
	providers    []string
	name         string
	label        string
	fieldType    forms.FieldType
	required     bool
	placeholder  string
	defaultValue any
}

// storageFieldTable is the single source of truth for which fields each
// provider exposes and enforces.
var storageFieldTable = []storageField{
	// Amazon S3 and S3-compatible stores.
	{providers: []string{ProviderS3}, name: "endpoint", label: "Endpoint", fieldType: forms.FieldTypeText, placeholder: "https://s3.amazonaws.com"},
	{providers: []string{ProviderS3}, name: "region", label: "Region", fieldType: forms.FieldTypeText, defaultValue: "us-east-1"},
	{providers: []string{ProviderS3}, name: "accessKeyId", label: "Access Key ID", fieldType: forms.FieldTypeText, required: true},
	{providers: []string{ProviderS3}, name: "secretAccessKey", label: "Secret Access Key", fieldType: forms.FieldTypePassword, required: true},
	{providers: []string{ProviderS3}, name: "bucket", label: "Bucket", fieldType: forms.FieldTypeText, required: true},
	{providers: []string{ProviderS3}, name: "pathStyle", label: "Force Path Style", fieldType: forms.FieldTypeSwitch, defaultValue: false},

	{providers: []string{ProviderMinIO}, name: "endpoint", label: "Endpoint", fieldType: forms.FieldTypeText, required: true, placeholder: "http://127.0.0.1:9000"},
	{providers: []string{ProviderMinIO}, name: "accessKeyId", label: "Access Key", fieldType: forms.FieldTypeText, required: true},
	{providers: []string{ProviderMinIO}, name: "secretAccessKey", label: "Secret Key", fieldType: forms.FieldTypePassword, required: true},
	{providers: []string{ProviderMinIO}, name: "bucket", label: "Bucket", fieldType: forms.FieldTypeText, required: true},
	{providers: []string{ProviderMinIO}, name: "useSSL", label: "Use SSL/TLS", fieldType: forms.FieldTypeSwitch, defaultValue: false},

	{providers: []string{ProviderR2}, name: "accountId", label: "Account ID", fieldType: forms.FieldTypeText, required: true},
	{providers: []string{ProviderR2}, name: "accessKeyId", label: "Access Key ID", fieldType: forms.FieldTypeText, required: true},
	{providers: []string{ProviderR2}, name: "secretAccessKey", label: "Secret Access Key", fieldType: forms.FieldTypePassword, required: true},
	{providers: []string{ProviderR2}, name: "bucket", label: "Bucket", fieldType: forms.FieldTypeText, required: true},

	{providers: []string{ProviderOSS}, name: "endpoint", label: "Endpoint", fieldType: forms.FieldTypeText, required: true, placeholder: "oss-cn-hangzhou.aliyuncs.com"},
	{providers: []string{ProviderOSS}, name: "accessKeyId", label: "AccessKey ID", fieldType: forms.FieldTypeText, required: true},
	{providers: []string{ProviderOSS}, name: "accessKeySecret", label: "AccessKey Secret", fieldType: forms.FieldTypePassword, required: true},
	{providers: []string{ProviderOSS}, name: "bucket", label: "Bucket", fieldType: forms.FieldTypeText, required: true},

	{providers: []string{ProviderCOS}, name: "region", label: "Region", fieldType: forms.FieldTypeText, required: true, placeholder: "ap-guangzhou"},
	{providers: []string{ProviderCOS}, name: "appId", label: "App ID", fieldType: forms.FieldTypeText, required: true},
	{providers: []string{ProviderCOS}, name: "secretId", label: "Secret ID", fieldType: forms.FieldTypeText, required: true},
	{providers: []string{ProviderCOS}, name: "secretKey", label: "Secret Key", fieldType: forms.FieldTypePassword, required: true},
	{providers: []string{ProviderCOS}, name: "bucket", label: "Bucket", fieldType: forms.FieldTypeText, required: true},

	{providers: []string{ProviderOBS}, name: "endpoint", label: "Endpoint", fieldType: forms.FieldTypeText, required: true, placeholder: "obs.cn-north-4.myhuaweicloud.com"},
	{providers: []string{ProviderOBS}, name: "accessKey", label: "Access Key", fieldType: forms.FieldTypeText, required: true},
	{providers: []string{ProviderOBS}, name: "secretKey", label: "Secret Key", fieldType: forms.FieldTypePassword, required: true},
	{providers: []string{ProviderOBS}, name: "bucket", label: "Bucket", fieldType: forms.FieldTypeText, required: true},

	{providers: []string{ProviderQiniu}, name: "accessKey", label: "Access Key", fieldType: forms.FieldTypeText, required: true},
	{providers: []string{ProviderQiniu}, name: "secretKey", label: "Secret Key", fieldType: forms.FieldTypePassword, required: true},
	{providers: []string{ProviderQiniu}, name: "bucket", label: "Bucket", fieldType: forms.FieldTypeText, required: true},
	{providers: []string{ProviderQiniu}, name: "accessUrl", label: "Access URL", fieldType: forms.FieldTypeText, required: true, placeholder: "https://cdn.example.com"},

	{providers: []string{ProviderUpyun}, name: "operator", label: "Operator", fieldType: forms.FieldTypeText, required: true},
	{providers: []string{ProviderUpyun}, name: "operatorPassword", label: "Operator Password", fieldType: forms.FieldTypePassword, required: true},
	{providers: []string{ProviderUpyun}, name: "bucket", label: "Service Name", fieldType: forms.FieldTypeText, required: true},
	{providers: []string{ProviderUpyun}, name: "accelerateUrl", label: "Accelerate URL", fieldType: forms.FieldTypeText, placeholder: "https://bucket.test.upcdn.net"},

	{providers: []string{ProviderGitHub}, name: "repo", label: "Repository", fieldType: forms.FieldTypeText, required: true, placeholder: "owner/repo"},
	{providers: []string{ProviderGitHub}, name: "branch", label: "Branch", fieldType: forms.FieldTypeText, defaultValue: "main"},
	{providers: []string{ProviderGitHub}, name: "token", label: "Token", fieldType: forms.FieldTypePassword, required: true},
	{providers: []string{ProviderGitHub}, name: "path", label: "Path Prefix", fieldType: forms.FieldTypeText, placeholder: "images/"},

	{providers: []string{ProviderGitee}, name: "repo", label: "Repository", fieldType: forms.FieldTypeText, required: true, placeholder: "owner/repo"},
	{providers: []string{ProviderGitee}, name: "branch", label: "Branch", fieldType: forms.FieldTypeText, defaultValue: "master"},
	{providers: []string{ProviderGitee}, name: "token", label: "Token", fieldType: forms.FieldTypePassword, required: true},
	{providers: []string{ProviderGitee}, name: "path", label: "Path Prefix", fieldType: forms.FieldTypeText},

	{providers: []string{ProviderSMMS}, name: "apiToken", label: "API Token", fieldType: forms.FieldTypePassword, required: true},

	{providers: []string{ProviderImgur}, name: "clientId", label: "Client ID", fieldType: forms.FieldTypeText, required: true},
	{providers: []string{ProviderImgur}, name: "clientSecret", label: "Client Secret", fieldType: forms.FieldTypePassword},

	{providers: []string{ProviderWebDAV}, name: "endpoint", label: "Server URL", fieldType: forms.FieldTypeText, required: true, placeholder: "https://dav.example.com"},
	{providers: []string{ProviderWebDAV}, name: "username", label: "Username", fieldType: forms.FieldTypeText, required: true},
	{providers: []string{ProviderWebDAV}, name: "password", label: "Password", fieldType: forms.FieldTypePassword, required: true},
	{providers: []string{ProviderWebDAV}, name: "rootPath", label: "Root Path", fieldType: forms.FieldTypeText, placeholder: "/uploads"},
}

// FormSections replaces the common host/port sections entirely: identity is
// the provider plus its credential set.
func (c *ObjectStorageConnector) FormSections() []forms.Section {
	providerSection := forms.Section{
		Name:  "provider",
		Title: "Provider",
		Fields: []forms.Field{
			{
				Name:        "name",
				Label:       "Connection Name",
				Type:        forms.FieldTypeText,
				Placeholder: "My Storage",
				Required:    true,
			},
			{
				Name:  "description",
				Label: "Description",
				Type:  forms.FieldTypeTextarea,
				Rows:  2,
			},
			{
				Name:         "provider",
				Label:        "Provider",
				Type:         forms.FieldTypeSelect,
				Required:     true,
				DefaultValue: ProviderS3,
				Options:      StorageProviders,
			},
		},
	}

	credentials := forms.Section{
		Name:   "credentials",
		Title:  "Credentials",
		Fields: make([]forms.Field, 0, len(storageFieldTable)),
	}
	for _, sf := range storageFieldTable {
		credentials.Fields = append(credentials.Fields, sf.toFormField())
	}

	return []forms.Section{providerSection, credentials, advancedSection()}
}

func (sf storageField) toFormField() forms.Field {
	field := forms.Field{
		Name:         sf.name,
		Label:        sf.label,
		Type:         sf.fieldType,
		Required:     sf.required,
		Placeholder:  sf.placeholder,
		DefaultValue: sf.defaultValue,
		Visible:      providerIn(sf.providers...),
	}
	if sf.required {
		field.Validate = requiredForProviders(sf.providers, sf.label)
	}
	return field
}

func providerIn(providers ...string) forms.VisibleFunc {
	return func(form forms.FormData) bool {
		current := forms.AsString(form["provider"])
		for _, p := range providers {
			if current == p {
				return true
			}
		}
		return false
	}
}

// requiredForProviders re-tests the discriminant before enforcing "required",
// so hidden provider fields are never mandatory.
func requiredForProviders(providers []string, label string) forms.ValidateFunc {
	return func(value any, form forms.FormData) string {
		current := forms.AsString(form["provider"])
		matched := false
		for _, p := range providers {
			if current == p {
				matched = true
				break
			}
		}
		if !matched {
			return ""
		}
		if forms.AsString(value) == "" {
			return label + " is required"
		}
		return ""
	}
}

// storageBag is the typed view of the generic driver bag. Weakly typed
// decoding tolerates the string/number drift JSON round trips introduce.
type storageBag struct {
	Provider         string `mapstructure:"provider"`
	Endpoint         string `mapstructure:"endpoint"`
	Region           string `mapstructure:"region"`
	AccessKeyID      string `mapstructure:"accessKeyId"`
	SecretAccessKey  string `mapstructure:"secretAccessKey"`
	AccessKeySecret  string `mapstructure:"accessKeySecret"`
	AccessKey        string `mapstructure:"accessKey"`
	SecretKey        string `mapstructure:"secretKey"`
	SecretID         string `mapstructure:"secretId"`
	AccountID        string `mapstructure:"accountId"`
	AppID            string `mapstructure:"appId"`
	Bucket           string `mapstructure:"bucket"`
	PathStyle        bool   `mapstructure:"pathStyle"`
	UseSSL           bool   `mapstructure:"useSSL"`
	AccessURL        string `mapstructure:"accessUrl"`
	Operator         string `mapstructure:"operator"`
	OperatorPassword string `mapstructure:"operatorPassword"`
	AccelerateURL    string `mapstructure:"accelerateUrl"`
	Repo             string `mapstructure:"repo"`
	Branch           string `mapstructure:"branch"`
	Token            string `mapstructure:"token"`
	Path             string `mapstructure:"path"`
	APIToken         string `mapstructure:"apiToken"`
	ClientID         string `mapstructure:"clientId"`
	ClientSecret     string `mapstructure:"clientSecret"`
	Username         string `mapstructure:"username"`
	Password         string `mapstructure:"password"`
	RootPath         string `mapstructure:"rootPath"`
}

// ToConnectionConfig funnels every provider field into the generic s3 driver
// bag and derives the best-effort generic fields the backend keys off for
// providers without a dedicated code path.
//
// Precedence is part of the contract:
//
//	host     = endpoint, else Qiniu access URL, else Upyun accelerate URL
//	username = accessKeyId, accessKey, secretId, operator, clientId, username
//	password = secretAccessKey, accessKeySecret, secretKey, operatorPassword,
//	           token, apiToken, clientSecret, password
//	database = bucket, else repo
func (c *ObjectStorageConnector) ToConnectionConfig(form forms.FormData) (*ConnectionConfig, error) {
	provider := forms.AsString(form["provider"])
	if provider == "" {
		return nil, fmt.Errorf("object storage: provider is required")
	}

	cfg := &ConnectionConfig{
		DBType:      TypeObjectStorage,
		ID:          forms.AsString(form["id"]),
		Name:        forms.AsString(form["name"]),
		Description: forms.AsString(form["description"]),
	}
	if v, ok := forms.AsInt(form["timeout"]); ok {
		cfg.Timeout = v
	}
	if v, ok := forms.AsInt(form["connectionTimeout"]); ok {
		cfg.ConnectionTimeout = v
	}
	if v, ok := forms.AsInt(form["queryTimeout"]); ok {
		cfg.QueryTimeout = v
	}

	bag := cfg.Driver(storageDriverFamily)
	bag["provider"] = provider
	for _, sf := range storageFieldTable {
		if !providerIn(sf.providers...)(form) {
			continue
		}
		if value, ok := form[sf.name]; ok && value != nil {
			switch sf.fieldType {
			case forms.FieldTypeSwitch:
				bag[sf.name] = forms.AsBool(value)
			default:
				if s := forms.AsString(value); s != "" {
					bag[sf.name] = s
				}
			}
		}
	}

	cfg.Host = firstNonEmpty(
		stringFromBag(bag, "endpoint"),
		stringFromBag(bag, "accessUrl"),
		stringFromBag(bag, "accelerateUrl"),
	)
	cfg.Username = firstNonEmpty(
		stringFromBag(bag, "accessKeyId"),
		stringFromBag(bag, "accessKey"),
		stringFromBag(bag, "secretId"),
		stringFromBag(bag, "operator"),
		stringFromBag(bag, "clientId"),
		stringFromBag(bag, "username"),
	)
	cfg.Password = firstNonEmpty(
		stringFromBag(bag, "secretAccessKey"),
		stringFromBag(bag, "accessKeySecret"),
		stringFromBag(bag, "secretKey"),
		stringFromBag(bag, "operatorPassword"),
		stringFromBag(bag, "token"),
		stringFromBag(bag, "apiToken"),
		stringFromBag(bag, "clientSecret"),
		stringFromBag(bag, "password"),
	)
	cfg.Database = firstNonEmpty(
		stringFromBag(bag, "bucket"),
		stringFromBag(bag, "repo"),
	)

	return cfg, nil
}

// FromConnectionConfig rehydrates form state from the persisted driver bag.
// Absent bag keys simply stay absent; the form falls back to field defaults.
func (c *ObjectStorageConnector) FromConnectionConfig(cfg *ConnectionConfig) forms.FormData {
	form := forms.FormData{}
	if cfg == nil {
		return form
	}

	setNonEmpty(form, "id", cfg.ID)
	setNonEmpty(form, "name", cfg.Name)
	setNonEmpty(form, "description", cfg.Description)
	if cfg.Timeout != 0 {
		form["timeout"] = cfg.Timeout
	}
	if cfg.ConnectionTimeout != 0 {
		form["connectionTimeout"] = cfg.ConnectionTimeout
	}
	if cfg.QueryTimeout != 0 {
		form["queryTimeout"] = cfg.QueryTimeout
	}

	rawBag, ok := cfg.DriverConfig[storageDriverFamily]
	if !ok {
		return form
	}

	var bag storageBag
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &bag,
		WeaklyTypedInput: true,
	})
	if err != nil || decoder.Decode(rawBag) != nil {
		return form
	}

	setNonEmpty(form, "provider", bag.Provider)
	setNonEmpty(form, "endpoint", bag.Endpoint)
	setNonEmpty(form, "region", bag.Region)
	setNonEmpty(form, "accessKeyId", bag.AccessKeyID)
	setNonEmpty(form, "secretAccessKey", bag.SecretAccessKey)
	setNonEmpty(form, "accessKeySecret", bag.AccessKeySecret)
	setNonEmpty(form, "accessKey", bag.AccessKey)
	setNonEmpty(form, "secretKey", bag.SecretKey)
	setNonEmpty(form, "secretId", bag.SecretID)
	setNonEmpty(form, "accountId", bag.AccountID)
	setNonEmpty(form, "appId", bag.AppID)
	setNonEmpty(form, "bucket", bag.Bucket)
	setNonEmpty(form, "accessUrl", bag.AccessURL)
	setNonEmpty(form, "operator", bag.Operator)
	setNonEmpty(form, "operatorPassword", bag.OperatorPassword)
	setNonEmpty(form, "accelerateUrl", bag.AccelerateURL)
	setNonEmpty(form, "repo", bag.Repo)
	setNonEmpty(form, "branch", bag.Branch)
	setNonEmpty(form, "token", bag.Token)
	setNonEmpty(form, "path", bag.Path)
	setNonEmpty(form, "apiToken", bag.APIToken)
	setNonEmpty(form, "clientId", bag.ClientID)
	setNonEmpty(form, "clientSecret", bag.ClientSecret)
	setNonEmpty(form, "username", bag.Username)
	setNonEmpty(form, "password", bag.Password)
	setNonEmpty(form, "rootPath", bag.RootPath)
	if _, ok := rawBag["pathStyle"]; ok {
		form["pathStyle"] = bag.PathStyle
	}
	if _, ok := rawBag["useSSL"]; ok {
		form["useSSL"] = bag.UseSSL
	}

	return form
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func stringFromBag(bag map[string]any, key string) string {
	value, ok := bag[key]
	if !ok {
		return ""
	}
	return forms.AsString(value)
}

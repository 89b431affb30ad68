package models

// Options for the CLI. Every option can also be set through the
// environment, e.g. SERVICE_PORT or SERVICE_GEMINI_API_KEY.
type Options struct {
	Debug     bool   `doc:"Enable debug logging" short:"d" default:"false"`
	LogFormat string `doc:"Log encoding (json or console)" default:"json"`
	Host      string `doc:"Hostname to listen on" default:"localhost"`
	Port      int    `doc:"Port to listen on" short:"p" default:"8888"`
	APIKey    string `doc:"API key required on generation and history routes (empty disables auth)"`

	Backend           string `doc:"Generation backend (gemini, openai or placeholder)" default:"gemini"`
	ModelBackend      string `doc:"Backend for 3D model requests (placeholder or llm)" default:"placeholder"`
	GeminiAPIKey      string `doc:"Gemini API key"`
	GeminiModel       string `doc:"Gemini model used for generation" default:"gemini-2.0-flash"`
	EmbeddingModel    string `doc:"Model used to embed script outlines (empty uses the backend's default)"`
	OpenAIAPIKey      string `doc:"API key of the OpenAI compatible backend"`
	OpenAIBaseURL     string `doc:"Base URL of the OpenAI compatible backend" default:"https://api.openai.com/v1"`
	OpenAIModel       string `doc:"Model of the OpenAI compatible backend" default:"gpt-4o-mini"`
	GenerationTimeout int    `doc:"Timeout of a single generation call in seconds" default:"120"`
	BackendRPM        int    `doc:"Maximum backend calls per minute (0 disables the limit)" default:"0"`
	PlaceholderDelay  int    `doc:"Simulated latency of the placeholder backend in milliseconds" default:"1500"`

	FormTTL    int `doc:"Minutes an idle form session is kept" default:"60"`
	PreviewTTL int `doc:"Minutes an uploaded concept art preview is kept" default:"30"`

	History       bool   `doc:"Store successful generations" default:"false"`
	HistoryStore  string `doc:"Where generations are stored (postgres or memory)" default:"postgres"`
	DBHost        string `doc:"Database hostname" default:"localhost"`
	DBPort        int    `doc:"Database port" default:"5432"`
	DBUser        string `doc:"Database username" default:"postgres"`
	DBPassword    string `doc:"Database password" default:"password"`
	DBName        string `doc:"Database name" default:"postgres"`
	EncryptionKey string `doc:"Key used to encrypt stored outlines and descriptions (empty stores them in clear)"`
}

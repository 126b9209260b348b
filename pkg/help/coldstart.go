package help

const ColdstartYAML = `# llm-compliance-monitor Quick Start

modes:
  paragraph: "Score every paragraph of every document against thresholded rules (default)"
  attribute: "Extract app attributes from page text and check each against its rule"
  site: "Functional checks (HTTPS, TLS 1.2+, GeoIP region) plus the closest rule"

rule_sets:
  legal: "Privacy, consent, sharing, accessibility (paragraph default)"
  us-data: "US data location, access, logging, vendor agreements (attribute/site default)"
  eu-contract: "EU data-location contract rules"

commands:
  paragraph_check: |
    lcm check --urls "LegalDoc1=https://www.sec.gov/privacy,BankApp1=https://www.bankofamerica.com/mobile-banking/"

  attribute_check: |
    lcm check --mode attribute --formats console,json

  eu_rules: |
    lcm check --mode attribute --rule-set eu-contract

  site_check: |
    lcm check --mode site --geoip-db /usr/share/GeoIP/GeoLite2-Country.mmdb

  offline_embedder: |
    lcm check --embedder hashing --formats csv,html

  monitor: |
    lcm --log-format text monitor --interval 10m --max-iterations 6

  search: |
    lcm search --summarize "What are the data protection requirements?"

  fetch_only: |
    lcm fetch --urls "https://www.sec.gov/privacy" --format yaml

  rules: |
    lcm rules list --mode attribute
    lcm rules extract > extracted.yaml

  history: |
    lcm runs list
    lcm runs show --issues-only
    lcm runs prune --older-than 720h

outputs:
  reports: "reports/compliance_report.{csv,xlsx,html,json,yaml} plus manifest-<run_id>.json"
  app_reports: "reports/<app>_compliance_report.json (attribute mode)"
  history: "lcm.db (runs, documents, records, cached embeddings)"

exit_codes:
  0: "every document fetched"
  1: "some documents failed"
  2: "every document failed, or invalid configuration"

tips:
  - "Copy config.example.yaml to lcm.yaml to set sources, rules and applications"
  - "Logs are JSON on stderr; reports and tables go to stdout"
  - "--quiet hides progress bars and non-error logs"
`

package ethereum

// anchorABI describes the deployed certificate anchor contract.
const anchorABI = `[
  {"type":"function","name":"issueCertificate","stateMutability":"nonpayable",
   "inputs":[{"name":"certificateId","type":"string"},{"name":"hash","type":"bytes32"}],"outputs":[]},
  {"type":"function","name":"getCertificate","stateMutability":"view",
   "inputs":[{"name":"certificateId","type":"string"}],
   "outputs":[{"name":"","type":"bytes32"},{"name":"","type":"address"},{"name":"","type":"uint256"}]},
  {"type":"function","name":"setIssuer","stateMutability":"nonpayable",
   "inputs":[{"name":"issuer","type":"address"},{"name":"allowed","type":"bool"}],"outputs":[]},
  {"type":"event","name":"CertificateIssued","anonymous":false,
   "inputs":[{"name":"certificateId","type":"string","indexed":false},{"name":"issuer","type":"address","indexed":false},
             {"name":"hash","type":"bytes32","indexed":false},{"name":"issuedAt","type":"uint256","indexed":false}]}
]`
